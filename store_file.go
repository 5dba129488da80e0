package naming

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/andreyvit/naming/fsutil"
)

type FileStoreOptions struct {
	Perm    os.FileMode // file mode for new records, defaults to 0o600
	NoSync  bool        // skip fsync; only for tests
	Create  bool        // create the directory if missing
	Logger  *slog.Logger
	Verbose bool
}

// FileStore keeps one file per container in a directory, named by its
// ObjectKey, plus the counter file.
//
// Every write goes to a temporary file which is synced and then renamed (or,
// for Save, hard-linked) into place, followed by a directory sync. Readers
// never see a partially written record, and a crash in the middle of
// Overwrite keeps the previous record. Stray temporary files left by a crash
// are removed by OpenFileStore.
type FileStore struct {
	dir     string
	perm    os.FileMode
	noSync  bool
	logger  *slog.Logger
	verbose bool
}

var _ Store = (*FileStore)(nil)

func OpenFileStore(dir string, o FileStoreOptions) (*FileStore, error) {
	if o.Perm == 0 {
		o.Perm = 0o600
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Create {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, storeErr("open", "", err)
		}
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, storeErr("open", "", err)
	}
	if !st.IsDir() {
		return nil, storeErr("open", "", fmt.Errorf("%s: not a directory", dir))
	}

	s := &FileStore{
		dir:     dir,
		perm:    o.Perm,
		noSync:  o.NoSync,
		logger:  o.Logger,
		verbose: o.Verbose,
	}
	if err := s.removeStaleTempFiles(); err != nil {
		return nil, storeErr("open", "", err)
	}
	return s, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key ObjectKey) string {
	return filepath.Join(s.dir, string(key))
}

func (s *FileStore) Load(key ObjectKey) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, storeErr("load", key, err)
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		if s.verbose {
			s.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: LOAD.NOTFOUND", slog.String("key", string(key)))
		}
		return nil, ErrNotFound
	} else if err != nil {
		return nil, storeErr("load", key, err)
	}
	payload, err := openEnvelope(data)
	if err != nil {
		return nil, storeErr("load", key, err)
	}
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: LOAD", slog.String("key", string(key)), slog.Int("size", len(payload)))
	}
	return payload, nil
}

func (s *FileStore) Save(key ObjectKey, payload []byte) error {
	return s.write("save", key, payload, true)
}

func (s *FileStore) Overwrite(key ObjectKey, payload []byte) error {
	return s.write("overwrite", key, payload, false)
}

func (s *FileStore) write(op string, key ObjectKey, payload []byte, noClobber bool) error {
	if err := ValidateKey(key); err != nil {
		return storeErr(op, key, err)
	}
	data := appendEnvelope(nil, payload)
	err := fsutil.WriteFileAtomic(s.path(key), data, fsutil.WriteOptions{
		Perm:      s.perm,
		NoClobber: noClobber,
		NoSync:    s.noSync,
	})
	var sde *fsutil.SyncDirError
	if errors.As(err, &sde) {
		// the record is already in place; failing here would make a retry
		// see ErrExists for a write reported as failed
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "naming: directory sync failed after write", slog.String("op", op), slog.String("key", string(key)), slog.Any("err", sde.Err))
		err = nil
	}
	if noClobber && errors.Is(err, fs.ErrExist) {
		return ErrExists
	} else if err != nil {
		return storeErr(op, key, err)
	}
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "naming: WRITE", slog.String("op", op), slog.String("key", string(key)), slog.Int("size", len(payload)))
	}
	return nil
}

func (s *FileStore) ReadCounter() (uint64, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, counterFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNotFound
	} else if err != nil {
		return 0, storeErr("read counter", "", err)
	}
	v, err := openCounterEnvelope(data)
	if err != nil {
		return 0, storeErr("read counter", "", err)
	}
	return v, nil
}

func (s *FileStore) WriteCounter(v uint64) error {
	data := appendCounterEnvelope(nil, v)
	err := fsutil.WriteFileAtomic(filepath.Join(s.dir, counterFileName), data, fsutil.WriteOptions{
		Perm:   s.perm,
		NoSync: s.noSync,
	})
	return storeErr("write counter", "", err)
}

func (s *FileStore) Keys() ([]ObjectKey, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storeErr("list", "", err)
	}
	var keys []ObjectKey
	for _, ent := range ents {
		if !ent.Type().IsRegular() {
			continue
		}
		key := ObjectKey(ent.Name())
		if ValidateKey(key) != nil {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *FileStore) removeStaleTempFiles() error {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, ent := range ents {
		name := ent.Name()
		if !ent.Type().IsRegular() || !strings.HasPrefix(name, fsutil.TempPrefix) {
			continue
		}
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "naming: deleting stale temporary file", slog.String("dir", s.dir), slog.String("file", name))
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete stale temporary file: %w", err)
		}
	}
	return nil
}
