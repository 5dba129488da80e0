package naming

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means that no record exists for a key, or no binding exists
	// for a name. It is a valid negative result, not an operational failure.
	ErrNotFound = errors.New("not found")

	// ErrCorruptData means that a persisted record exists but cannot be
	// decoded.
	ErrCorruptData = errors.New("corrupt data")

	// ErrIOFailure means that the backing store failed at the filesystem or
	// database level.
	ErrIOFailure = errors.New("I/O failure")

	// ErrExists is returned by Store.Save when a record is already present.
	ErrExists = errors.New("already exists")

	// ErrIteratorMisuse is returned by enumerator operations after Destroy.
	ErrIteratorMisuse = errors.New("enumerator used after destroy")

	ErrAlreadyBound = errors.New("name already bound")
	ErrNotContext   = errors.New("binding is not a context")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidKey   = errors.New("invalid object key")

	ErrInvalidBatchSize = errors.New("batch size must be positive")

	errStoreClosed = errors.New("store closed")
)

// DataError describes undecodable persisted bytes. It matches ErrCorruptData
// under errors.Is.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Is(target error) bool {
	return target == ErrCorruptData
}

func (e *DataError) Error() string {
	msg := fmt.Sprintf("%s at offset %d of %d bytes", e.Msg, e.Off, len(e.Data))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + " [" + hexExcerpt(e.Data, 64, 32) + "]"
}

// hexExcerpt hex-encodes data, eliding the middle when it is longer than
// head+tail bytes.
func hexExcerpt(data []byte, head, tail int) string {
	if len(data) <= head+tail {
		return hex.EncodeToString(data)
	}
	return hex.EncodeToString(data[:head]) + ".." + hex.EncodeToString(data[len(data)-tail:])
}

// StoreError attributes a store failure to an operation and a key.
//
// Causes that already carry a meaning (ErrNotFound, ErrExists, a *DataError)
// are reachable through Unwrap. Any other cause is an operational failure and
// additionally matches ErrIOFailure.
type StoreError struct {
	Op  string
	Key ObjectKey
	Err error
}

func storeErr(op string, key ObjectKey, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{op, key, err}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	if target != ErrIOFailure {
		return false
	}
	return !errors.Is(e.Err, ErrNotFound) && !errors.Is(e.Err, ErrExists) && !errors.Is(e.Err, ErrCorruptData) && !errors.Is(e.Err, ErrInvalidKey)
}

func (e *StoreError) Error() string {
	var buf strings.Builder
	buf.WriteString("naming: ")
	buf.WriteString(e.Op)
	if e.Key != "" {
		buf.WriteByte(' ')
		buf.WriteString(string(e.Key))
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// IsOperational reports whether err is a real failure rather than a negative
// lookup result.
func IsOperational(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound)
}
