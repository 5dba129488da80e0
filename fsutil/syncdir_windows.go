package fsutil

// SyncDir is a no-op on Windows, which cannot open directories for syncing.
func SyncDir(dir string) error {
	return nil
}
