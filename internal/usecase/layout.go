package usecase

import (
	"fmt"
	"path/filepath"
	"time"
)

const timestampLayout = "20060102_150405"

// RunDir returns the directory that holds every file of a single run.
// All backups of one run share the same timestamp.
func RunDir(root string, stamp time.Time) string {
	return filepath.Join(root, stamp.Format(timestampLayout))
}

// BackupFileName builds the file name for one database dump inside a run
// directory.
func BackupFileName(database string, stamp time.Time, ext string) string {
	return fmt.Sprintf("%s_%s%s", database, stamp.Format(timestampLayout), ext)
}
