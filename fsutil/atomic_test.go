package fsutil_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/naming/fsutil"
)

func TestWriteFileAtomic_replaces(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "a")

	ensure(fsutil.WriteFileAtomic(fn, []byte("one"), fsutil.WriteOptions{}))
	ensure(fsutil.WriteFileAtomic(fn, []byte("two"), fsutil.WriteOptions{}))

	if s := string(must(os.ReadFile(fn))); s != "two" {
		t.Errorf("** got %q, wanted %q", s, "two")
	}
	noTempFiles(t, dir)
}

func TestWriteFileAtomic_noClobber(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "a")

	ensure(fsutil.WriteFileAtomic(fn, []byte("one"), fsutil.WriteOptions{NoClobber: true}))
	err := fsutil.WriteFileAtomic(fn, []byte("two"), fsutil.WriteOptions{NoClobber: true})
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("** got err %v, wanted fs.ErrExist", err)
	}

	if s := string(must(os.ReadFile(fn))); s != "one" {
		t.Errorf("** got %q, wanted %q", s, "one")
	}
	noTempFiles(t, dir)
}

func TestWriteFileAtomic_syncDirFailure(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "a")
	boom := errors.New("boom")
	defer fsutil.SetSyncDirForTest(func(string) error { return boom })()

	err := fsutil.WriteFileAtomic(fn, []byte("one"), fsutil.WriteOptions{NoClobber: true})
	var sde *fsutil.SyncDirError
	if !errors.As(err, &sde) || !errors.Is(err, boom) {
		t.Fatalf("** got err %v, wanted *SyncDirError wrapping boom", err)
	}
	if s := string(must(os.ReadFile(fn))); s != "one" {
		t.Errorf("** got %q, wanted %q", s, "one")
	}
	noTempFiles(t, dir)
}

func TestWriteFileAtomic_perm(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "a")
	ensure(fsutil.WriteFileAtomic(fn, []byte("x"), fsutil.WriteOptions{Perm: 0o600, NoSync: true}))
	st := must(os.Stat(fn))
	if st.Mode().Perm() != 0o600 {
		t.Errorf("** got mode %v, wanted 0600", st.Mode().Perm())
	}
}

func TestWriteFileAtomic_missingDir(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "nope", "a")
	err := fsutil.WriteFileAtomic(fn, []byte("x"), fsutil.WriteOptions{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("** got err %v, wanted fs.ErrNotExist", err)
	}
}

func noTempFiles(t testing.TB, dir string) {
	t.Helper()
	for _, ent := range must(os.ReadDir(dir)) {
		if strings.HasPrefix(ent.Name(), fsutil.TempPrefix) {
			t.Errorf("** leftover temp file %s", ent.Name())
		}
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
