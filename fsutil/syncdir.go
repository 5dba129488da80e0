//go:build !windows

package fsutil

import "os"

// SyncDir fsyncs a directory so that entries created, renamed or linked in it
// survive a crash.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
