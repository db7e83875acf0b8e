package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDisplayPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "extended windows path",
			input: `\\?\C:\Music\2001`,
			want:  `C:\Music\2001`,
		},
		{
			name:  "unix path untouched",
			input: "/home/user/music",
			want:  "/home/user/music",
		},
		{
			name:  "prefix only stripped at start",
			input: `/data/\\?\x`,
			want:  `/data/\\?\x`,
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayPath(tt.input)
			if got != tt.want {
				t.Errorf("DisplayPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	tmpDir := t.TempDir()
	sub := filepath.Join(tmpDir, "library")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	want, err := filepath.EvalSymlinks(sub)
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}

	got, err := Canonicalize(filepath.Join(tmpDir, "library", "..", "library"))
	if err != nil {
		t.Fatalf("Canonicalize returned error: %v", err)
	}
	if got != want {
		t.Errorf("Canonicalize() = %q, want %q", got, want)
	}

	if _, err := Canonicalize(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Canonicalize() expected error for missing path, got nil")
	}
}

func TestCanonicalizeParent(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "real")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	realDir, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}

	got, err := CanonicalizeParent(filepath.Join(link, "snap.zip"))
	if err != nil {
		t.Fatalf("CanonicalizeParent returned error: %v", err)
	}
	if want := filepath.Join(realDir, "snap.zip"); got != want {
		t.Errorf("CanonicalizeParent() = %q, want %q", got, want)
	}

	missing := filepath.Join(tmpDir, "missing", "snap.zip")
	got, err = CanonicalizeParent(missing)
	if err != nil {
		t.Fatalf("CanonicalizeParent returned error: %v", err)
	}
	if got != missing {
		t.Errorf("CanonicalizeParent(%q) = %q, want it unchanged", missing, got)
	}
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "music")
	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"root itself", root, true},
		{"direct child", filepath.Join(root, "a.tar.gz"), true},
		{"nested child", filepath.Join(root, "x", "y", "b.zip"), true},
		{"sibling with shared prefix", root + "-backup.tar.gz", false},
		{"parent", filepath.Dir(root), false},
		{"dot-dot named file", filepath.Join(root, "..backup"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithin(root, tt.target); got != tt.want {
				t.Errorf("IsWithin(%q, %q) = %v, want %v", root, tt.target, got, tt.want)
			}
		})
	}
}
