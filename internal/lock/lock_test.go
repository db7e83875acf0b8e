package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireIsExclusive(t *testing.T) {
	lockDir := t.TempDir()
	root := "/srv/music"

	first, err := AcquireIn(lockDir, root)
	if err != nil {
		t.Fatalf("first AcquireIn failed: %v", err)
	}

	// flock locks are per open file description, so a second handle in the
	// same process conflicts just like another process would.
	if _, err := AcquireIn(lockDir, root); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	other, err := AcquireIn(lockDir, "/srv/video")
	if err != nil {
		t.Fatalf("lock on a different root failed: %v", err)
	}
	defer other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(PathFor(lockDir, root)); err != nil {
		t.Errorf("expected lock file to remain, stat err = %v", err)
	}

	again, err := AcquireIn(lockDir, root)
	if err != nil {
		t.Fatalf("AcquireIn after release failed: %v", err)
	}
	again.Release()
}

func TestPathFor(t *testing.T) {
	dir := t.TempDir()
	a := PathFor(dir, "/srv/music")
	b := PathFor(dir, "/srv/music/")
	c := PathFor(dir, "/srv/video")

	if a != b {
		t.Errorf("expected cleaned roots to share a lock: %s vs %s", a, b)
	}
	if a == c {
		t.Error("expected different roots to use different locks")
	}
	if filepath.Dir(a) != dir || !strings.HasPrefix(filepath.Base(a), "flatdir-") {
		t.Errorf("unexpected lock path %s", a)
	}
}
