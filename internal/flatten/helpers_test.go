package flatten

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
)

// createTree writes files (slash-separated relative path -> content) below
// root. A path ending in "/" creates an empty directory.
func createTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(p, 0755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create test file %s: %v", rel, err)
		}
	}
}

// snapshot returns every entry below root as relative slash paths mapped
// to file content, directories suffixed with "/".
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			out[rel+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk %s: %v", root, err)
	}
	return out
}

func assertTree(t *testing.T, root string, want map[string]string) {
	t.Helper()
	got := snapshot(t, root)
	if len(got) != len(want) {
		t.Errorf("tree has %d entries, want %d\ngot:  %v\nwant: %v", len(got), len(want), keys(got), keys(want))
	}
	for rel, content := range want {
		gotContent, ok := got[rel]
		if !ok {
			t.Errorf("missing %s", rel)
			continue
		}
		if gotContent != content {
			t.Errorf("%s has content %q, want %q", rel, gotContent, content)
		}
	}
	for rel := range got {
		if _, ok := want[rel]; !ok {
			t.Errorf("unexpected %s", rel)
		}
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// recordingFS wraps OSFS, counting mutations and optionally failing them.
type recordingFS struct {
	OSFS
	mu        sync.Mutex
	renames   []string
	removes   []string
	failOn    map[string]error
	statHook  func(name string) (fs.FileInfo, bool)
	listOrder func([]fs.DirEntry)
}

func newRecordingFS() *recordingFS {
	return &recordingFS{failOn: make(map[string]error)}
}

func (r *recordingFS) Stat(name string) (fs.FileInfo, error) {
	if r.statHook != nil {
		if info, ok := r.statHook(name); ok {
			return info, nil
		}
	}
	return r.OSFS.Stat(name)
}

func (r *recordingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if err, ok := r.failOn[name]; ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	entries, err := r.OSFS.ReadDir(name)
	if err == nil && r.listOrder != nil {
		r.listOrder(entries)
	}
	return entries, err
}

func (r *recordingFS) Rename(oldpath, newpath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failOn[oldpath]; ok {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}
	r.renames = append(r.renames, oldpath)
	return r.OSFS.Rename(oldpath, newpath)
}

func (r *recordingFS) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failOn[name]; ok {
		return &fs.PathError{Op: "remove", Path: name, Err: err}
	}
	r.removes = append(r.removes, name)
	return r.OSFS.Remove(name)
}

func (r *recordingFS) mutations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.renames) + len(r.removes)
}
