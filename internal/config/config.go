package config

import (
	"fmt"

	"github.com/tympanix/flatdir/internal/archive"
	"github.com/tympanix/flatdir/internal/checksum"
	"github.com/tympanix/flatdir/internal/flatten"
	"github.com/tympanix/flatdir/internal/util"
)

// Config holds the settings of one flatdir invocation. It is filled from
// command-line flags only; there is no config file or environment lookup.
type Config struct {
	Yes               bool
	Quiet             bool
	Verbose           bool
	DryRun            bool
	NoColor           bool
	Collision         string
	ChecksumAlgorithm string
	Discard           string
	Backup            string
	BackupFormat      string
}

// New creates a Config with default values
func New() *Config {
	return &Config{
		Collision:         string(flatten.PolicyOverwrite),
		ChecksumAlgorithm: "sha256",
	}
}

// Resolved is a validated Config turned into the typed values the
// flattener and backup need.
type Resolved struct {
	Policy       flatten.Policy
	Checksum     checksum.Validator
	Discard      *util.GlobPattern
	BackupFormat archive.Format
}

// Validate checks flag combinations and parses every typed value
func (c *Config) Validate() (*Resolved, error) {
	if c.Quiet && c.Verbose {
		return nil, fmt.Errorf("--quiet and --verbose cannot be used together")
	}

	policy, err := flatten.ParsePolicy(c.Collision)
	if err != nil {
		return nil, err
	}

	validator, err := checksum.NewValidator(c.ChecksumAlgorithm)
	if err != nil {
		return nil, err
	}

	discard := util.ParseGlobPattern(c.Discard)
	if err := discard.Validate(); err != nil {
		return nil, err
	}

	var format archive.Format
	if c.BackupFormat != "" {
		if c.Backup == "" {
			return nil, fmt.Errorf("--backup-format requires --backup")
		}
		format, err = archive.Parse(c.BackupFormat)
		if err != nil {
			return nil, err
		}
	}

	return &Resolved{
		Policy:       policy,
		Checksum:     validator,
		Discard:      discard,
		BackupFormat: format,
	}, nil
}

// FlattenOptions builds flattener options from the resolved values
func (c *Config) FlattenOptions(r *Resolved, logger util.Logger, observer flatten.Observer) flatten.Options {
	return flatten.Options{
		Collision: r.Policy,
		Checksum:  r.Checksum,
		Discard:   r.Discard,
		DryRun:    c.DryRun,
		Logger:    logger,
		Observer:  observer,
	}
}
