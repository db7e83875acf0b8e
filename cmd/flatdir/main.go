package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tympanix/flatdir/internal/archive"
	"github.com/tympanix/flatdir/internal/config"
	"github.com/tympanix/flatdir/internal/flatten"
	"github.com/tympanix/flatdir/internal/lock"
	"github.com/tympanix/flatdir/internal/output"
	"github.com/tympanix/flatdir/internal/progress"
	"github.com/tympanix/flatdir/internal/prompt"
	"github.com/tympanix/flatdir/internal/util"
)

var version = "dev"

// errReported marks failures whose message was already printed.
var errReported = errors.New("failure already reported")

func main() {
	rootCmd := buildRootCommand(os.Stdin, os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func buildRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	cfg := config.New()

	var rootCmd = &cobra.Command{
		Use:   "flatdir <path>",
		Short: "Move every nested file into the top-level directory",
		Long: "Flatten a directory recursively: every file below <path> is moved directly into <path>\n" +
			"and the emptied subdirectories are removed. <path> itself is never removed.\n\n" +
			"Files with the same name overwrite each other unless --on-collision says otherwise.\n" +
			"A failure stops the run and leaves the tree partially flattened; running again\n" +
			"continues where it stopped.\n\n" +
			"Exit codes:\n  0 - Success or aborted by the user\n  1 - Error",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfg.NoColor || !util.IsATTY() {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(out, "You must provide a path to be flattened")
				return nil
			}
			return runFlatten(args[0], cfg, in, out)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&cfg.NoColor, "no-color", false, "Disable coloured output")
	rootCmd.Flags().BoolVarP(&cfg.Yes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.Flags().BoolVarP(&cfg.Quiet, "quiet", "q", false, "Suppress all output except failures")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Print every move and removal and a summary")
	rootCmd.Flags().BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Show what would be done without touching any file")
	rootCmd.Flags().StringVar(&cfg.Collision, "on-collision", cfg.Collision, "What to do when a file name is already taken in <path>: overwrite, error, suffix, or skip-identical")
	rootCmd.Flags().StringVarP(&cfg.ChecksumAlgorithm, "checksum", "c", cfg.ChecksumAlgorithm, "Checksum algorithm used by skip-identical (sha1, sha256, sha512, md5)")
	rootCmd.Flags().StringVarP(&cfg.Discard, "discard", "d", "", "Glob pattern(s) of nested files to delete instead of move (e.g., '**/.DS_Store,**/Thumbs.db')")
	rootCmd.Flags().StringVarP(&cfg.Backup, "backup", "b", "", "Write an archive of <path> to this file before flattening")
	rootCmd.Flags().StringVar(&cfg.BackupFormat, "backup-format", "", "Backup archive format: gzip, zstd, or zip (default: from the file name)")

	var restoreCmd = &cobra.Command{
		Use:   "restore <archive> <dir>",
		Short: "Extract a backup archive into a directory",
		Long:  "Extract a backup written with --backup into <dir>, recreating the original layout.\n\nExit codes:\n  0 - Success\n  1 - Error",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := archive.Restore(args[0], args[1]); err != nil {
				return fmt.Errorf("failed to restore %s: %w", args[0], err)
			}
			fmt.Fprintf(out, "Restored %s into %s\n", args[0], args[1])
			return nil
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "Print the version number of flatdir",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "flatdir version %s\n", version)
		},
	}

	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	return rootCmd
}

func runFlatten(path string, cfg *config.Config, in io.Reader, out io.Writer) error {
	resolved, err := cfg.Validate()
	if err != nil {
		return err
	}

	canonical, err := util.Canonicalize(path)
	info, statErr := os.Stat(path)
	if err != nil || statErr != nil || info.Mode().IsRegular() {
		fmt.Fprintln(out, "Invalid directory path")
		return errReported
	}
	display := util.DisplayPath(canonical)

	var logger util.Logger
	if cfg.Quiet {
		logger = util.NewLogger(io.Discard)
	} else if cfg.Verbose {
		logger = util.NewVerboseLogger(out)
	} else {
		logger = util.NewLogger(out)
	}
	failures := util.NewLogger(out)

	if !cfg.Quiet || !cfg.Yes {
		prompt.Announce(out, display)
	}
	if !cfg.Yes {
		ok, err := prompt.Confirm(in, out)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	fail := func(err error) error {
		failures.Errorf("Failed to flatten `%s`\n", display)
		fmt.Fprintln(out, err)
		return errReported
	}

	rootLock, err := lock.Acquire(canonical)
	if err != nil {
		return fail(err)
	}
	defer rootLock.Release()

	if cfg.Backup != "" {
		if cfg.DryRun {
			logger.VerbosePrintf("Skipping backup to %s in dry-run mode\n", cfg.Backup)
		} else {
			logger.VerbosePrintf("Writing backup to %s\n", cfg.Backup)
			if err := archive.Backup(canonical, cfg.Backup, resolved.BackupFormat); err != nil {
				return fail(err)
			}
		}
	}

	showProgress := util.IsATTY() && !cfg.Quiet && !cfg.Verbose && !cfg.DryRun
	tracker := output.NewTracker(canonical, logger, cfg.DryRun)
	var bar *progress.ProgressBar

	observer := func(ev flatten.Event) {
		tracker.Record(ev)
		if bar == nil {
			return
		}
		switch ev.Kind {
		case flatten.EventMoved, flatten.EventDiscarded, flatten.EventDeduplicated:
			bar.Increment(ev.Path)
		}
	}

	flattener, err := flatten.New(cfg.FlattenOptions(resolved, logger, observer))
	if err != nil {
		return fail(err)
	}

	if showProgress {
		bar = progress.NewProgressBar(progressTotal(flattener, canonical), "Flattening", showProgress)
	}

	report, err := flattener.Flatten(canonical)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fail(err)
	}

	if cfg.DryRun {
		tracker.PrintPlan(report)
		tracker.PrintSummary()
	} else if cfg.Verbose {
		tracker.PrintSummary()
	}
	return nil
}

// progressTotal pre-counts the files to process, or returns -1 when the
// tree cannot be fully listed. Listing errors are left for the flatten
// itself to report, after the same moves it would make without a bar.
func progressTotal(f *flatten.Flattener, root string) int {
	total, err := f.Count(root)
	if err != nil {
		return -1
	}
	return total
}
