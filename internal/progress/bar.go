package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar counts processed files during a flatten run
type ProgressBar struct {
	bar          *progressbar.ProgressBar
	showProgress bool
	current      int
	total        int
	description  string
	mu           sync.Mutex
}

// NewProgressBar creates a file-count progress bar. A negative total
// shows a spinner with a running count instead of a bar. Output goes to an
// ANSI-aware stdout when showProgress is set (typically util.IsATTY() &&
// !quietMode) and is discarded otherwise. The bar clears itself on Finish
// so a clean run leaves no trace on the terminal.
func NewProgressBar(total int, description string, showProgress bool) *ProgressBar {
	return newProgressBar(total, description, showProgress, ansi.NewAnsiStdout())
}

func newProgressBar(total int, description string, showProgress bool, writer io.Writer) *ProgressBar {
	if !showProgress {
		writer = io.Discard
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionFullWidth(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription(describe(0, total, description, "")),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	return &ProgressBar{
		bar:          bar,
		showProgress: showProgress,
		total:        total,
		description:  description,
	}
}

func describe(current, total int, description, file string) string {
	count := fmt.Sprintf("%d/%d", current, total)
	if total < 0 {
		count = fmt.Sprintf("%d", current)
	}
	if file == "" {
		return fmt.Sprintf("[cyan][%s][reset] %s", count, description)
	}
	return fmt.Sprintf("[cyan][%s][reset] %s %s", count, description, file)
}

// Increment advances the bar by one file and shows its base name.
// Terminal write errors are dropped; the bar is cosmetic.
func (p *ProgressBar) Increment(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.bar.Describe(describe(p.current, p.total, p.description, filepath.Base(path)))
	_ = p.bar.Add(1)
}

// Current returns the number of files processed so far
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() error {
	return p.bar.Finish()
}
