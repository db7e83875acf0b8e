package output

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/tympanix/flatdir/internal/flatten"
	"github.com/tympanix/flatdir/internal/util"
)

// Tracker collects flatten events and prints a run summary
type Tracker struct {
	root         string
	dryRun       bool
	startTime    time.Time
	endTime      time.Time
	moved        int
	skipped      int
	discarded    int
	deduplicated int
	removedDirs  int
	mu           sync.Mutex
	logger       util.Logger
}

func NewTracker(root string, logger util.Logger, dryRun bool) *Tracker {
	return &Tracker{
		root:      root,
		dryRun:    dryRun,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Record is a flatten.Observer.
func (t *Tracker) Record(ev flatten.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case flatten.EventMoved:
		t.moved++
	case flatten.EventSkipped:
		t.skipped++
	case flatten.EventDiscarded:
		t.discarded++
	case flatten.EventDeduplicated:
		t.deduplicated++
	case flatten.EventRemovedDir:
		t.removedDirs++
	}
}

// PrintPlan lists what a dry run would do, relative to the root
func (t *Tracker) PrintPlan(report *flatten.Report) {
	header := color.New(color.FgYellow)
	t.logger.Printf("%s\n", header.Sprintf("Dry run: no changes made to %s", t.root))
	for _, m := range report.Moves {
		t.logger.Printf("  move    %s -> %s\n", t.rel(m.From), t.rel(m.To))
	}
	for _, p := range report.Deduplicated {
		t.logger.Printf("  dedupe  %s\n", t.rel(p))
	}
	for _, p := range report.Discarded {
		t.logger.Printf("  discard %s\n", t.rel(p))
	}
	for _, p := range report.RemovedDirs {
		t.logger.Printf("  rmdir   %s\n", t.rel(p))
	}
}

func (t *Tracker) rel(p string) string {
	r, err := filepath.Rel(t.root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(r)
}

// Summary formats the counters collected so far
func (t *Tracker) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.endTime
	if end.IsZero() {
		end = time.Now()
	}

	label := "Files moved"
	if t.dryRun {
		label = "Files to move"
	}
	summary := fmt.Sprintf("%s: %d", label, t.moved)
	if t.skipped > 0 {
		summary += fmt.Sprintf(", already in place: %d", t.skipped)
	}
	if t.deduplicated > 0 {
		summary += fmt.Sprintf(", deduplicated: %d", t.deduplicated)
	}
	if t.discarded > 0 {
		summary += fmt.Sprintf(", discarded: %d", t.discarded)
	}
	summary += fmt.Sprintf(", directories removed: %d", t.removedDirs)
	summary += fmt.Sprintf(", time: %s", formatDuration(end.Sub(t.startTime)))
	return summary
}

func (t *Tracker) PrintSummary() {
	t.mu.Lock()
	t.endTime = time.Now()
	t.mu.Unlock()

	t.logger.Println(t.Summary())
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
