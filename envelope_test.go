package naming

import (
	"bytes"
	"testing"
)

func TestEnvelope(t *testing.T) {
	payload := []byte("hello")
	data := appendEnvelope([]byte("prefix"), payload)[len("prefix"):]
	deepEqual(t, must(openEnvelope(data)), payload)

	o := func(name string, data []byte) {
		t.Helper()
		_, err := openEnvelope(data)
		if err == nil {
			t.Errorf("** %s: opened without error", name)
			return
		}
		isErr(t, err, ErrCorruptData)
	}
	o("empty", nil)
	o("truncated", data[:len(data)-1])
	o("extended", append(bytes.Clone(data), 0))

	flipped := bytes.Clone(data)
	flipped[3] ^= 1
	o("flipped payload bit", flipped)

	future := appendEnvelope(nil, payload)
	future[0] = 2
	o("future version with stale checksum", future)
}

func TestEnvelope_sizeMismatchWithValidChecksum(t *testing.T) {
	// a well-formed checksum over a lying size field
	data := appendChecksum([]byte{envelopeVer1, 10, 'a', 'b'}, 0)
	_, err := openEnvelope(data)
	isErr(t, err, ErrCorruptData)

	data = appendChecksum([]byte{2, 1, 'a'}, 0)
	_, err = openEnvelope(data)
	isErr(t, err, ErrCorruptData)
}

func TestCounterEnvelope(t *testing.T) {
	data := appendCounterEnvelope(nil, 1<<40+7)
	deepEqual(t, len(data), counterEnvelopeSize)
	deepEqual(t, must(openCounterEnvelope(data)), uint64(1<<40+7))

	data[4] ^= 0x80
	_, err := openCounterEnvelope(data)
	isErr(t, err, ErrCorruptData)

	_, err = openCounterEnvelope([]byte("garbage"))
	isErr(t, err, ErrCorruptData)
}
