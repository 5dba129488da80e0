package naming

import (
	"maps"
	"slices"
	"sync"
)

// MemStore is a transient in-memory Store, intended for tests and for
// embedding the service without persistence. It keeps enveloped bytes like
// the durable stores do, so corruption can be simulated via Corrupt.
type MemStore struct {
	mu         sync.Mutex
	records    map[ObjectKey][]byte
	counter    []byte
	closed     bool
	writeCount int
	failWrites error
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[ObjectKey][]byte)}
}

func (s *MemStore) Load(key ObjectKey) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("load", key); err != nil {
		return nil, err
	}
	raw, found := s.records[key]
	if !found {
		return nil, ErrNotFound
	}
	payload, err := openEnvelope(raw)
	if err != nil {
		return nil, storeErr("load", key, err)
	}
	return slices.Clone(payload), nil
}

func (s *MemStore) Save(key ObjectKey, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite("save", key); err != nil {
		return err
	}
	if _, found := s.records[key]; found {
		return ErrExists
	}
	s.records[key] = appendEnvelope(nil, payload)
	s.writeCount++
	return nil
}

func (s *MemStore) Overwrite(key ObjectKey, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite("overwrite", key); err != nil {
		return err
	}
	s.records[key] = appendEnvelope(nil, payload)
	s.writeCount++
	return nil
}

func (s *MemStore) ReadCounter() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("read counter", ""); err != nil {
		return 0, err
	}
	if s.counter == nil {
		return 0, ErrNotFound
	}
	v, err := openCounterEnvelope(s.counter)
	if err != nil {
		return 0, storeErr("read counter", "", err)
	}
	return v, nil
}

func (s *MemStore) WriteCounter(v uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite("write counter", ""); err != nil {
		return err
	}
	s.counter = appendCounterEnvelope(nil, v)
	s.writeCount++
	return nil
}

func (s *MemStore) Keys() ([]ObjectKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("list", ""); err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(s.records)), nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FailWrites makes every subsequent write fail with err; nil restores
// normal operation.
func (s *MemStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// WriteCount returns the number of successful writes, counter included.
func (s *MemStore) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCount
}

// Corrupt flips a byte of the stored record, or of the counter if key is
// empty, so that the next read fails its checksum.
func (s *MemStore) Corrupt(key ObjectKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var raw []byte
	if key == "" {
		raw = s.counter
	} else {
		raw = s.records[key]
	}
	if len(raw) > 0 {
		raw[len(raw)/2] ^= 0xFF
	}
}

func (s *MemStore) check(op string, key ObjectKey) error {
	if s.closed {
		return storeErr(op, key, errStoreClosed)
	}
	if key != "" {
		if err := ValidateKey(key); err != nil {
			return storeErr(op, key, err)
		}
	}
	return nil
}

func (s *MemStore) checkWrite(op string, key ObjectKey) error {
	if err := s.check(op, key); err != nil {
		return err
	}
	if s.failWrites != nil {
		return storeErr(op, key, s.failWrites)
	}
	return nil
}
