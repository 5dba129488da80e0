package naming

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestDataError_ErrorAndUnwrap(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		inner := errors.New("inner")
		err := dataErrf([]byte{0xAA, 0xBB}, 1, inner, "oops")
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("err = %T, wanted *DataError", err)
		}
		if !errors.Is(err, inner) {
			t.Fatalf("errors.Is(err, inner) = false, wanted true")
		}
		if !errors.Is(err, ErrCorruptData) {
			t.Fatalf("errors.Is(err, ErrCorruptData) = false, wanted true")
		}
		s := err.Error()
		if s != "oops at offset 1 of 2 bytes: inner [aabb]" {
			t.Fatalf("err.Error() = %q", s)
		}
	})

	t.Run("large data includes prefix+suffix", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		err := dataErrf(data, 0, nil, "oops")
		s := err.Error()
		if !strings.Contains(s, "of 200 bytes") || !strings.Contains(s, "..") || len(s) > 300 {
			t.Fatalf("err.Error() = %q, wanted an elided excerpt of 200 bytes", s)
		}
	})
}

func TestStoreError_classification(t *testing.T) {
	o := func(cause error, notFound, corrupt, io bool) {
		t.Helper()
		err := storeErr("load", "NC1", cause)
		if errors.Is(err, ErrNotFound) != notFound || errors.Is(err, ErrCorruptData) != corrupt || errors.Is(err, ErrIOFailure) != io {
			t.Errorf("** %v: got (notFound=%v corrupt=%v io=%v), wanted (%v %v %v)", err,
				errors.Is(err, ErrNotFound), errors.Is(err, ErrCorruptData), errors.Is(err, ErrIOFailure),
				notFound, corrupt, io)
		}
	}
	o(ErrNotFound, true, false, false)
	o(dataErrf(nil, 0, nil, "bad"), false, true, false)
	o(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, false, false, true)
	o(ErrExists, false, false, false)
	o(ErrInvalidKey, false, false, false)

	if storeErr("load", "NC1", nil) != nil {
		t.Errorf("** storeErr(nil) != nil")
	}
}

func TestStoreError_message(t *testing.T) {
	s := storeErr("load", "NC1", errors.New("boom")).Error()
	if s != "naming: load NC1: boom" {
		t.Errorf("** got %q", s)
	}
	s = storeErr("write counter", "", errors.New("boom")).Error()
	if s != "naming: write counter: boom" {
		t.Errorf("** got %q", s)
	}
}

func TestIsOperational(t *testing.T) {
	deepEqual(t, IsOperational(nil), false)
	deepEqual(t, IsOperational(storeErr("activate", "NC1", ErrNotFound)), false)
	deepEqual(t, IsOperational(storeErr("load", "NC1", errors.New("eio"))), true)
}
