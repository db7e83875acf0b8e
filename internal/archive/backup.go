package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tympanix/flatdir/internal/util"
)

// ErrBackupInsideRoot is returned when the backup file would be written
// into the tree it snapshots.
var ErrBackupInsideRoot = errors.New("backup file must be outside the directory being flattened")

// Backup snapshots root into an archive at dest. An empty format is
// detected from dest's file name. The archive is written to a temporary
// file next to dest and renamed into place, so dest is either complete or
// absent.
func Backup(root, dest string, format Format) error {
	realRoot, err := util.Canonicalize(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	realDest, err := util.CanonicalizeParent(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dest, err)
	}
	if util.IsWithin(realRoot, realDest) {
		return fmt.Errorf("%w: %s", ErrBackupInsideRoot, dest)
	}
	if format == "" {
		format = DetectFromFilename(dest)
	}

	dir := filepath.Dir(dest)
	tempFile, err := os.CreateTemp(dir, ".flatdir-backup-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := format.CreateArchive(root, tempFile); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to archive %s: %w", root, err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync backup: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		return fmt.Errorf("failed to move backup into place: %w", err)
	}

	success = true
	return nil
}

// Restore extracts the archive at archivePath into destDir, creating
// destDir if needed. The format is detected from the file name.
func Restore(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", destDir, err)
	}

	return DetectFromFilename(archivePath).ExtractArchive(file, destDir)
}
