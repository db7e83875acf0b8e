// Package flatten moves every file below a root directory directly into
// that root and removes the emptied subdirectories.
package flatten

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/tympanix/flatdir/internal/checksum"
	"github.com/tympanix/flatdir/internal/util"
)

// EventKind identifies what happened to a single tree entry.
type EventKind string

const (
	EventMoved        EventKind = "moved"
	EventSkipped      EventKind = "skipped"
	EventDiscarded    EventKind = "discarded"
	EventDeduplicated EventKind = "deduplicated"
	EventRemovedDir   EventKind = "removed"
)

// Event is reported to an Observer after each step succeeds.
// Dest is only set for EventMoved and EventDeduplicated.
type Event struct {
	Kind EventKind
	Path string
	Dest string
}

// Observer receives flatten events in the order they happen.
type Observer func(Event)

// Move records a single relocation.
type Move struct {
	From string
	To   string
}

// Report describes what a run did, or would do when DryRun is set.
// On failure it holds everything completed before the error.
type Report struct {
	Root         string
	DryRun       bool
	Moves        []Move
	RemovedDirs  []string
	Discarded    []string
	Deduplicated []string
	Skipped      int
}

// Options configures a Flattener. The zero value flattens with OSFS and
// PolicyOverwrite.
type Options struct {
	FS        FS
	Collision Policy
	// Checksum compares contents for PolicySkipIdentical. Defaults to sha256.
	Checksum checksum.Validator
	// Discard selects files, by root-relative slash path, that are deleted
	// instead of moved. Files directly in root are never discarded.
	Discard  *util.GlobPattern
	DryRun   bool
	Logger   util.Logger
	Observer Observer
}

// Flattener runs the flatten algorithm. It holds no state between calls.
type Flattener struct {
	fs        FS
	collision Policy
	checksum  checksum.Validator
	discard   *util.GlobPattern
	dryRun    bool
	logger    util.Logger
	observer  Observer
}

// New creates a Flattener, filling in defaults for unset options.
func New(opts Options) (*Flattener, error) {
	f := &Flattener{
		fs:        opts.FS,
		collision: opts.Collision,
		checksum:  opts.Checksum,
		discard:   opts.Discard,
		dryRun:    opts.DryRun,
		logger:    opts.Logger,
		observer:  opts.Observer,
	}
	if f.fs == nil {
		f.fs = OSFS{}
	}
	if f.collision == "" {
		f.collision = PolicyOverwrite
	}
	if _, err := ParsePolicy(string(f.collision)); err != nil {
		return nil, err
	}
	if f.checksum == nil && f.collision == PolicySkipIdentical {
		v, err := checksum.NewValidator("sha256")
		if err != nil {
			return nil, err
		}
		f.checksum = v
	}
	if !f.discard.IsEmpty() {
		if err := f.discard.Validate(); err != nil {
			return nil, err
		}
	}
	if f.logger == nil {
		f.logger = util.NewLogger(io.Discard)
	}
	return f, nil
}

// Flatten moves every file below root directly into root with default
// options. root itself is never removed.
func Flatten(root string) error {
	f, err := New(Options{})
	if err != nil {
		return err
	}
	_, err = f.Flatten(root)
	return err
}

// frame is one directory on the explicit traversal stack.
type frame struct {
	dir     string
	rel     string
	entries []fs.DirEntry
	next    int
}

// run carries the per-call state of one Flatten invocation.
type run struct {
	*Flattener
	root    string
	report  *Report
	planned map[string]bool
}

// Flatten moves every file below root directly into root, depth first.
// Directories are removed only after all their entries were handled, and
// the first error aborts the run. The returned report is never nil.
func (f *Flattener) Flatten(root string) (*Report, error) {
	root = filepath.Clean(root)
	r := &run{
		Flattener: f,
		root:      root,
		report:    &Report{Root: root, DryRun: f.dryRun},
	}
	if f.dryRun {
		r.planned = make(map[string]bool)
	}

	if err := r.checkDestination(); err != nil {
		return r.report, err
	}
	entries, err := f.fs.ReadDir(root)
	if err != nil {
		return r.report, err
	}

	stack := []*frame{{dir: root, entries: entries}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.entries) {
			stack = stack[:len(stack)-1]
			if top.dir != root {
				if err := r.removeDir(top); err != nil {
					return r.report, err
				}
			}
			continue
		}

		entry := top.entries[top.next]
		top.next++

		if err := r.checkDestination(); err != nil {
			return r.report, err
		}

		p := filepath.Join(top.dir, entry.Name())
		rel := path.Join(top.rel, entry.Name())
		if entry.IsDir() {
			children, err := f.fs.ReadDir(p)
			if err != nil {
				return r.report, err
			}
			stack = append(stack, &frame{dir: p, rel: rel, entries: children})
			continue
		}
		if err := r.visitFile(top.dir, p, rel, entry.Name()); err != nil {
			return r.report, err
		}
	}

	return r.report, nil
}

// checkDestination fails if root currently names a regular file.
func (r *run) checkDestination() error {
	info, err := r.fs.Stat(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Listing the root reports the missing directory.
			return nil
		}
		return err
	}
	if info.Mode().IsRegular() {
		return &os.PathError{Op: "flatten", Path: r.root, Err: ErrInvalidDestination}
	}
	return nil
}

func (r *run) visitFile(parent, p, rel, name string) error {
	if parent == r.root {
		r.report.Skipped++
		r.emit(Event{Kind: EventSkipped, Path: p})
		return nil
	}

	if !r.discard.IsEmpty() {
		matched, err := r.discard.Match(rel)
		if err != nil {
			return err
		}
		if matched {
			return r.discardFile(p)
		}
	}

	dest := filepath.Join(r.root, name)
	switch r.collision {
	case PolicyError:
		taken, err := r.taken(name)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: cannot move %s to %s", ErrCollision, p, dest)
		}
	case PolicySuffix:
		resolved, err := r.resolveSuffix(name)
		if err != nil {
			return err
		}
		dest = filepath.Join(r.root, resolved)
	case PolicySkipIdentical:
		taken, err := r.taken(name)
		if err != nil {
			return err
		}
		if taken {
			same, err := r.identical(p, dest)
			if err != nil {
				return err
			}
			if same {
				return r.dedupe(p, dest)
			}
			resolved, err := freeName(name, r.taken)
			if err != nil {
				return err
			}
			dest = filepath.Join(r.root, resolved)
		}
	}

	return r.move(p, dest)
}

func (r *run) resolveSuffix(name string) (string, error) {
	taken, err := r.taken(name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}
	return freeName(name, r.taken)
}

// taken reports whether name is already used directly in root, counting
// names planned by an earlier step of a dry run.
func (r *run) taken(name string) (bool, error) {
	if r.planned[name] {
		return true, nil
	}
	_, err := r.fs.Stat(filepath.Join(r.root, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// identical compares src with an existing dest by content. A dest that is
// not a regular file, or was only planned in a dry run, never matches.
func (r *run) identical(src, dest string) (bool, error) {
	info, err := r.fs.Stat(dest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	return r.checksum.Equal(src, dest)
}

func (r *run) move(src, dest string) error {
	if !r.dryRun {
		if err := r.fs.Rename(src, dest); err != nil {
			return err
		}
	} else {
		r.planned[filepath.Base(dest)] = true
	}
	r.report.Moves = append(r.report.Moves, Move{From: src, To: dest})
	r.logger.VerbosePrintf("Moved %s -> %s\n", src, dest)
	r.emit(Event{Kind: EventMoved, Path: src, Dest: dest})
	return nil
}

func (r *run) dedupe(src, dest string) error {
	if !r.dryRun {
		if err := r.fs.Remove(src); err != nil {
			return err
		}
	}
	r.report.Deduplicated = append(r.report.Deduplicated, src)
	r.logger.VerbosePrintf("Removed duplicate %s (same as %s)\n", src, dest)
	r.emit(Event{Kind: EventDeduplicated, Path: src, Dest: dest})
	return nil
}

func (r *run) discardFile(p string) error {
	if !r.dryRun {
		if err := r.fs.Remove(p); err != nil {
			return err
		}
	}
	r.report.Discarded = append(r.report.Discarded, p)
	r.logger.VerbosePrintf("Discarded %s\n", p)
	r.emit(Event{Kind: EventDiscarded, Path: p})
	return nil
}

func (r *run) removeDir(fr *frame) error {
	if !r.dryRun {
		if err := r.fs.Remove(fr.dir); err != nil {
			return err
		}
	}
	r.report.RemovedDirs = append(r.report.RemovedDirs, fr.dir)
	r.logger.VerbosePrintf("Removed directory %s\n", fr.dir)
	r.emit(Event{Kind: EventRemovedDir, Path: fr.dir})
	return nil
}

func (r *run) emit(ev Event) {
	if r.observer != nil {
		r.observer(ev)
	}
}

// Count returns the number of non-directory entries below root's
// subdirectories, i.e. the files a flatten would move or discard.
func (f *Flattener) Count(root string) (int, error) {
	root = filepath.Clean(root)
	entries, err := f.fs.ReadDir(root)
	if err != nil {
		return 0, err
	}
	var pending []string
	for _, e := range entries {
		if e.IsDir() {
			pending = append(pending, filepath.Join(root, e.Name()))
		}
	}

	count := 0
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		children, err := f.fs.ReadDir(dir)
		if err != nil {
			return count, err
		}
		for _, c := range children {
			if c.IsDir() {
				pending = append(pending, filepath.Join(dir, c.Name()))
			} else {
				count++
			}
		}
	}
	return count, nil
}
