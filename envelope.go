package naming

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Container envelope:
//
//	version:u8 payloadSize:uvarint payload checksum:u64le
//
// Counter envelope:
//
//	version:u8 counter:u64le checksum:u64le
//
// The checksum is xxhash64 of all preceding bytes.
const (
	envelopeVer1      = 1
	envelopeVerLatest = envelopeVer1

	checksumSize        = 8
	counterEnvelopeSize = 1 + 8 + checksumSize
	minEnvelopeSize     = 1 + 1 + checksumSize
)

func appendEnvelope(buf []byte, payload []byte) []byte {
	start := len(buf)
	buf = append(buf, envelopeVerLatest)
	buf = binary.AppendUvarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	return appendChecksum(buf, start)
}

// openEnvelope verifies data and returns the payload, which aliases data.
func openEnvelope(data []byte) ([]byte, error) {
	if len(data) < minEnvelopeSize {
		return nil, dataErrf(data, 0, nil, "envelope too short")
	}
	if err := verifyChecksum(data); err != nil {
		return nil, err
	}
	if ver := data[0]; ver != envelopeVer1 {
		return nil, dataErrf(data, 0, nil, "unsupported envelope version %d", ver)
	}

	body := data[:len(data)-checksumSize]
	size, n := binary.Uvarint(body[1:])
	if n <= 0 {
		return nil, dataErrf(data, 1, nil, "invalid payload size")
	}
	off := 1 + n
	if size > math.MaxInt32 || uint64(len(body)-off) != size {
		return nil, dataErrf(data, 1, nil, "payload size %d does not match envelope", size)
	}
	return body[off:], nil
}

func appendCounterEnvelope(buf []byte, v uint64) []byte {
	start := len(buf)
	buf = append(buf, envelopeVerLatest)
	buf = binary.LittleEndian.AppendUint64(buf, v)
	return appendChecksum(buf, start)
}

func openCounterEnvelope(data []byte) (uint64, error) {
	if len(data) != counterEnvelopeSize {
		return 0, dataErrf(data, 0, nil, "counter envelope has wrong size")
	}
	if err := verifyChecksum(data); err != nil {
		return 0, err
	}
	if ver := data[0]; ver != envelopeVer1 {
		return 0, dataErrf(data, 0, nil, "unsupported counter version %d", ver)
	}
	return binary.LittleEndian.Uint64(data[1:9]), nil
}

// appendChecksum appends the xxhash64 of buf[start:].
func appendChecksum(buf []byte, start int) []byte {
	return binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf[start:]))
}

func verifyChecksum(data []byte) error {
	n := len(data) - checksumSize
	expected := binary.LittleEndian.Uint64(data[n:])
	if actual := xxhash.Sum64(data[:n]); actual != expected {
		return dataErrf(data, n, nil, "checksum mismatch: computed %016x, stored %016x", actual, expected)
	}
	return nil
}
