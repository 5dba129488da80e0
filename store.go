package naming

// counterFileName is the fixed name of the allocator's counter record. It is
// not a valid ObjectKey, so it cannot collide with a container.
const counterFileName = "counter"

// Store is the durable key to record persistence used by Manager. Payloads
// are opaque; implementations wrap them in a checksummed envelope.
//
// Implementations must be safe for concurrent use. Errors other than
// ErrNotFound and ErrExists are reported as *StoreError; I/O causes match
// ErrIOFailure and undecodable envelopes match ErrCorruptData.
type Store interface {
	CounterStore
	KeyLister

	// Load returns the payload stored under key, or ErrNotFound.
	Load(key ObjectKey) ([]byte, error)

	// Save stores a new record. It fails with ErrExists, leaving the
	// existing record untouched, if key is already present. An error other
	// than ErrExists means the record was not stored.
	Save(key ObjectKey, payload []byte) error

	// Overwrite replaces the record unconditionally. A crash during
	// Overwrite leaves either the old or the new record in place.
	Overwrite(key ObjectKey, payload []byte) error

	Close() error
}

// CounterStore persists the allocator counter.
type CounterStore interface {
	// ReadCounter returns the persisted counter, or ErrNotFound if none was
	// ever written.
	ReadCounter() (uint64, error)

	// WriteCounter durably records v before returning.
	WriteCounter(v uint64) error
}

// KeyLister is implemented by stores that can enumerate their container keys.
type KeyLister interface {
	// Keys returns all stored container keys in lexicographic order.
	Keys() ([]ObjectKey, error)
}
