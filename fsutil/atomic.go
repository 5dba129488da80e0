// Package fsutil implements the durable file primitives used by the naming
// store: data-only fsync, directory fsync and atomic whole-file writes.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempPrefix starts the names of the temporary files created by
// WriteFileAtomic. Directory scanners should skip names that start with it.
const TempPrefix = ".tmp-"

type WriteOptions struct {
	Perm os.FileMode // defaults to 0o666 (before umask)

	// NoClobber makes the write fail with an error matching fs.ErrExist
	// when the target already exists. The check and the publication of the
	// new file are a single link(2), so two concurrent writers cannot both
	// succeed.
	NoClobber bool

	// NoSync skips fdatasync and directory fsync. Only for tests.
	NoSync bool
}

// SyncDirError reports a failed directory fsync after WriteFileAtomic has
// already published the new file. The target holds the new content; only
// its durability across a crash is in doubt.
type SyncDirError struct {
	Dir string
	Err error
}

func (e *SyncDirError) Error() string {
	return fmt.Sprintf("sync dir %s: %v", e.Dir, e.Err)
}

func (e *SyncDirError) Unwrap() error {
	return e.Err
}

var syncDir = SyncDir

// WriteFileAtomic replaces (or, with NoClobber, creates) path so that readers
// and crash recovery observe either the old content or the new content, never
// a partial file. The data goes to a temporary file in the same directory,
// is synced, and is then renamed (or linked) over the target; finally the
// directory is synced so the new entry itself is durable. A failure of that
// last step is reported as *SyncDirError.
func WriteFileAtomic(path string, data []byte, o WriteOptions) error {
	if o.Perm == 0 {
		o.Perm = 0o666
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, TempPrefix+base+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	var ok bool
	defer closeAndDeleteUnlessOK(f, &ok)

	if err := f.Chmod(o.Perm); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	if !o.NoSync {
		if err := Fdatasync(f); err != nil {
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}

	if o.NoClobber {
		err = os.Link(tmp, path)
		os.Remove(tmp)
	} else {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		return err
	}
	ok = true

	if !o.NoSync {
		if err := syncDir(dir); err != nil {
			return &SyncDirError{dir, err}
		}
	}
	return nil
}

func closeAndDeleteUnlessOK(f *os.File, ok *bool) {
	if *ok {
		return
	}
	f.Close()
	os.Remove(f.Name())
}
