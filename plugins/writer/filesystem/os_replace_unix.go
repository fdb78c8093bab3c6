//go:build !windows

package filesystem

import "os"

// osReplace renames atomically on POSIX.
func osReplace(tmpPath, dest string) error { return os.Rename(tmpPath, dest) }

// syncDir fsyncs the parent directory so the rename survives a crash.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
