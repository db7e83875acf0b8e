// Package archive writes and restores the snapshot taken by --backup
// before a directory is flattened.
package archive

import (
	"fmt"
	"io"
	"strings"
)

// Format names the container used for a backup snapshot.
type Format string

const (
	FormatGzip Format = "gzip"
	FormatZstd Format = "zstd"
	FormatZip  Format = "zip"
)

// codec pairs the writer and reader for one snapshot format.
type codec struct {
	extension string
	aliases   []string
	suffixes  []string
	create    func(srcDir string, w io.Writer) error
	extract   func(r io.Reader, destDir string) error
}

var codecs = map[Format]codec{
	FormatGzip: {".tar.gz", []string{"gz", "tgz"}, []string{".tar.gz", ".tgz"}, CreateTarGz, ExtractTarGz},
	FormatZstd: {".tar.zst", []string{"zst", "tzst"}, []string{".tar.zst", ".tzst"}, CreateTarZst, ExtractTarZst},
	FormatZip:  {".zip", nil, []string{".zip"}, CreateZip, ExtractZip},
}

func (f Format) String() string {
	return string(f)
}

// Extension is the file name suffix a snapshot in this format gets.
// Unknown formats fall back to gzip's.
func (f Format) Extension() string {
	if c, ok := codecs[f]; ok {
		return c.extension
	}
	return codecs[FormatGzip].extension
}

// CreateArchive snapshots everything below srcDir into writer, with
// entry names relative to srcDir.
func (f Format) CreateArchive(srcDir string, writer io.Writer) error {
	c, ok := codecs[f]
	if !ok {
		return fmt.Errorf("unsupported backup format: %s", f)
	}
	return c.create(srcDir, writer)
}

// ExtractArchive recreates a snapshot below destDir.
func (f Format) ExtractArchive(reader io.Reader, destDir string) error {
	c, ok := codecs[f]
	if !ok {
		return fmt.Errorf("unsupported backup format: %s", f)
	}
	return c.extract(reader, destDir)
}

// Parse reads a --backup-format value. Names are case-insensitive.
func Parse(s string) (Format, error) {
	name := strings.ToLower(s)
	for f, c := range codecs {
		if name == string(f) {
			return f, nil
		}
		for _, alias := range c.aliases {
			if name == alias {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("unsupported backup format '%s': must be one of: gzip, zstd, zip", s)
}

// DetectFromFilename picks the format from a backup file name, defaulting
// to gzip when the suffix is not recognised.
func DetectFromFilename(filename string) Format {
	lower := strings.ToLower(filename)
	for f, c := range codecs {
		for _, suffix := range c.suffixes {
			if strings.HasSuffix(lower, suffix) {
				return f
			}
		}
	}
	return FormatGzip
}
