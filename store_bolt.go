package naming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"go.etcd.io/bbolt"
)

var (
	containersBucket = []byte("containers")
	metaBucket       = []byte("meta")
	counterMetaKey   = []byte(counterFileName)
)

type BoltStoreOptions struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	MmapSize  int
}

// BoltStore keeps all containers in a single Bolt database, one value per
// key in the "containers" bucket, and the counter in the "meta" bucket.
// Values use the same envelope as FileStore. Bolt transactions make every
// write atomic.
type BoltStore struct {
	bdb     *bbolt.DB
	logger  *slog.Logger
	verbose bool
}

var _ Store = (*BoltStore)(nil)

func OpenBoltStore(path string, opt BoltStoreOptions) (*BoltStore, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0o600, bopt)
	if err != nil {
		return nil, storeErr("open", "", err)
	}
	err = bdb.Update(func(btx *bbolt.Tx) error {
		if _, err := btx.CreateBucketIfNotExists(containersBucket); err != nil {
			return err
		}
		_, err := btx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, storeErr("open", "", err)
	}
	return &BoltStore{bdb: bdb, logger: opt.Logger, verbose: opt.Verbose}, nil
}

func (s *BoltStore) Bolt() *bbolt.DB {
	return s.bdb
}

func (s *BoltStore) Close() error {
	return s.bdb.Close()
}

func (s *BoltStore) Load(key ObjectKey) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, storeErr("load", key, err)
	}
	var payload []byte
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		raw := btx.Bucket(containersBucket).Get(unsafeBytesFromString(string(key)))
		if raw == nil {
			return ErrNotFound
		}
		p, err := openEnvelope(raw)
		if err != nil {
			return err
		}
		// Bolt memory is only valid inside the transaction.
		payload = append([]byte(nil), p...)
		return nil
	})
	if err == ErrNotFound {
		if s.verbose {
			s.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: LOAD.NOTFOUND", slog.String("key", string(key)))
		}
		return nil, ErrNotFound
	} else if err != nil {
		return nil, storeErr("load", key, err)
	}
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: LOAD", slog.String("key", string(key)), slog.Int("size", len(payload)))
	}
	return payload, nil
}

func (s *BoltStore) Save(key ObjectKey, payload []byte) error {
	return s.put("save", key, payload, true)
}

func (s *BoltStore) Overwrite(key ObjectKey, payload []byte) error {
	return s.put("overwrite", key, payload, false)
}

func (s *BoltStore) put(op string, key ObjectKey, payload []byte, noClobber bool) error {
	if err := ValidateKey(key); err != nil {
		return storeErr(op, key, err)
	}
	data := appendEnvelope(nil, payload)
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		buck := btx.Bucket(containersBucket)
		k := []byte(key)
		if noClobber && buck.Get(k) != nil {
			return ErrExists
		}
		return buck.Put(k, data)
	})
	if err == ErrExists {
		return ErrExists
	} else if err != nil {
		return storeErr(op, key, err)
	}
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: WRITE", slog.String("op", op), slog.String("key", string(key)), slog.Int("size", len(payload)))
	}
	return nil
}

func (s *BoltStore) ReadCounter() (uint64, error) {
	var v uint64
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		raw := btx.Bucket(metaBucket).Get(counterMetaKey)
		if raw == nil {
			return ErrNotFound
		}
		var err error
		v, err = openCounterEnvelope(raw)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return 0, ErrNotFound
	} else if err != nil {
		return 0, storeErr("read counter", "", err)
	}
	return v, nil
}

func (s *BoltStore) WriteCounter(v uint64) error {
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(metaBucket).Put(counterMetaKey, appendCounterEnvelope(nil, v))
	})
	return storeErr("write counter", "", err)
}

func (s *BoltStore) Keys() ([]ObjectKey, error) {
	var keys []ObjectKey
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		return btx.Bucket(containersBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, ObjectKey(k))
			return nil
		})
	})
	if err != nil {
		return nil, storeErr("list", "", err)
	}
	return keys, nil
}

// Stats reports the number of stored containers and the database size.
func (s *BoltStore) Stats() (count int, size int64, err error) {
	err = s.bdb.View(func(btx *bbolt.Tx) error {
		count = btx.Bucket(containersBucket).Stats().KeyN
		size = btx.Size()
		return nil
	})
	if err != nil {
		err = fmt.Errorf("naming: stats: %w", err)
	}
	return
}

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
