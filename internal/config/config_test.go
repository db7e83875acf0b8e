package config

import (
	"strings"
	"testing"

	"github.com/tympanix/flatdir/internal/archive"
	"github.com/tympanix/flatdir/internal/flatten"
	"github.com/tympanix/flatdir/internal/util"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Collision != "overwrite" {
		t.Errorf("Expected default collision 'overwrite', got '%s'", cfg.Collision)
	}
	if cfg.ChecksumAlgorithm != "sha256" {
		t.Errorf("Expected default checksum 'sha256', got '%s'", cfg.ChecksumAlgorithm)
	}
	if cfg.Yes || cfg.DryRun || cfg.Quiet || cfg.Verbose {
		t.Errorf("Expected boolean flags to default to false, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		wantErr    string
		wantPolicy flatten.Policy
		wantFormat archive.Format
	}{
		{
			name:       "defaults",
			modify:     func(c *Config) {},
			wantPolicy: flatten.PolicyOverwrite,
		},
		{
			name:       "suffix policy",
			modify:     func(c *Config) { c.Collision = "suffix" },
			wantPolicy: flatten.PolicySuffix,
		},
		{
			name:    "unknown policy",
			modify:  func(c *Config) { c.Collision = "newest" },
			wantErr: "unsupported collision policy",
		},
		{
			name:    "unknown checksum",
			modify:  func(c *Config) { c.ChecksumAlgorithm = "crc32" },
			wantErr: "unsupported checksum algorithm",
		},
		{
			name:    "quiet and verbose",
			modify:  func(c *Config) { c.Quiet = true; c.Verbose = true },
			wantErr: "cannot be used together",
		},
		{
			name:    "bad discard glob",
			modify:  func(c *Config) { c.Discard = "**/[abc" },
			wantErr: "invalid glob pattern",
		},
		{
			name:    "backup format without backup",
			modify:  func(c *Config) { c.BackupFormat = "zstd" },
			wantErr: "requires --backup",
		},
		{
			name:       "backup with explicit format",
			modify:     func(c *Config) { c.Backup = "/tmp/x.bin"; c.BackupFormat = "zst" },
			wantPolicy: flatten.PolicyOverwrite,
			wantFormat: archive.FormatZstd,
		},
		{
			name:    "backup with bad format",
			modify:  func(c *Config) { c.Backup = "/tmp/x.bin"; c.BackupFormat = "rar" },
			wantErr: "unsupported backup format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			resolved, err := cfg.Validate()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if resolved.Policy != tt.wantPolicy {
				t.Errorf("Policy = %s, want %s", resolved.Policy, tt.wantPolicy)
			}
			if resolved.BackupFormat != tt.wantFormat {
				t.Errorf("BackupFormat = %s, want %s", resolved.BackupFormat, tt.wantFormat)
			}
			if resolved.Checksum == nil {
				t.Error("expected checksum validator")
			}
		})
	}
}

func TestFlattenOptions(t *testing.T) {
	cfg := New()
	cfg.DryRun = true
	cfg.Collision = "skip-identical"
	cfg.Discard = "**/.DS_Store"
	resolved, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	var logBuf strings.Builder
	opts := cfg.FlattenOptions(resolved, util.NewLogger(&logBuf), nil)
	if !opts.DryRun {
		t.Error("expected DryRun to carry over")
	}
	if opts.Collision != flatten.PolicySkipIdentical {
		t.Errorf("Collision = %s, want skip-identical", opts.Collision)
	}
	if opts.Checksum.Algorithm() != "sha256" {
		t.Errorf("Checksum = %s, want sha256", opts.Checksum.Algorithm())
	}
	if matched, _ := opts.Discard.Match("a/.DS_Store"); !matched {
		t.Error("expected discard pattern to match a/.DS_Store")
	}
}
