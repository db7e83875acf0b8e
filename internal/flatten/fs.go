package flatten

import (
	"io/fs"
	"os"
)

// FS is the set of host filesystem primitives the flattener relies on.
// Rename must be an atomic same-volume rename; no copy fallback is attempted.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

// OSFS is the FS backed by package os.
type OSFS struct{}

func (OSFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (OSFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Remove deletes a file or an empty directory. It never removes recursively.
func (OSFS) Remove(name string) error {
	return os.Remove(name)
}
