package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// extendedPathPrefix is the Windows extended-length path marker returned by
// some canonicalization routines.
const extendedPathPrefix = `\\?\`

// IsATTY checks if stdout is a terminal
func IsATTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Canonicalize returns the absolute, symlink-resolved form of path.
// It fails if path does not exist.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// CanonicalizeParent resolves symlinks in the directory part of path and
// joins the final element back unchanged, so path itself need not exist.
// A parent that cannot be resolved is returned in absolute form.
func CanonicalizeParent(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs, nil
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

// DisplayPath strips the extended-length prefix so paths read naturally.
func DisplayPath(path string) string {
	return strings.TrimPrefix(path, extendedPathPrefix)
}

// IsWithin reports whether target is root itself or lies below it.
// Both paths are compared in cleaned absolute form.
func IsWithin(root, target string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
