package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/tympanix/flatdir/internal/util"
)

// CreateTarGz creates a tar.gz archive of srcDir with paths relative to srcDir.
func CreateTarGz(srcDir string, writer io.Writer) error {
	gzipWriter := gzip.NewWriter(writer)

	if err := createTarArchive(srcDir, gzipWriter); err != nil {
		gzipWriter.Close()
		return err
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return nil
}

// ExtractTarGz extracts a tar.gz archive from the provided reader to destDir.
func ExtractTarGz(reader io.Reader, destDir string) error {
	gzipReader, err := gzip.NewReader(reader)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	return extractTar(gzipReader, destDir)
}

// CreateTarZst creates a tar.zst archive of srcDir with paths relative to srcDir.
func CreateTarZst(srcDir string, writer io.Writer) error {
	zstdWriter, err := zstd.NewWriter(writer)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := createTarArchive(srcDir, zstdWriter); err != nil {
		zstdWriter.Close()
		return err
	}

	if err := zstdWriter.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}

	return nil
}

// ExtractTarZst extracts a tar.zst archive from the provided reader to destDir.
func ExtractTarZst(reader io.Reader, destDir string) error {
	zstdReader, err := zstd.NewReader(reader)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	return extractTar(zstdReader, destDir)
}

// maxLinkTarget bounds the size of a symlink target read from a zip entry.
const maxLinkTarget = 4096

// entry is a file, directory or symbolic link collected for archiving.
type entry struct {
	path string
	rel  string
	info fs.FileInfo
	link string
}

func (e entry) isSymlink() bool {
	return e.info.Mode()&fs.ModeSymlink != 0
}

// collectEntries lists everything below srcDir in lexical order. Empty
// directories are kept so a restore reproduces the original layout.
// Symbolic links are stored as links, never followed. Other special
// files are skipped.
func collectEntries(srcDir string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == srcDir {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		var link string
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			link, err = os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read link %s: %w", path, err)
			}
		case !info.IsDir() && !info.Mode().IsRegular():
			return nil
		}
		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		entries = append(entries, entry{path: path, rel: filepath.ToSlash(relPath), info: info, link: link})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect files: %w", err)
	}
	return entries, nil
}

// createTarArchive writes a tar stream to any io.Writer (which may be a compression writer).
func createTarArchive(srcDir string, writer io.Writer) error {
	tarWriter := tar.NewWriter(writer)

	entries, err := collectEntries(srcDir)
	if err != nil {
		tarWriter.Close()
		return err
	}

	for _, e := range entries {
		if err := addEntryToTar(tarWriter, e); err != nil {
			tarWriter.Close()
			return err
		}
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	return nil
}

func addEntryToTar(tarWriter *tar.Writer, e entry) error {
	header, err := tar.FileInfoHeader(e.info, e.link)
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", e.rel, err)
	}
	header.Name = e.rel
	if e.info.IsDir() {
		header.Name += "/"
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", e.rel, err)
	}
	if e.info.IsDir() || e.isSymlink() {
		return nil
	}

	file, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", e.path, err)
	}
	defer file.Close()

	if _, err := io.Copy(tarWriter, file); err != nil {
		return fmt.Errorf("failed to write file %s to archive: %w", e.rel, err)
	}

	return nil
}

// extractTar extracts tar content from any decompressed reader.
func extractTar(reader io.Reader, destDir string) error {
	tarReader := tar.NewReader(reader)
	var links []pendingLink

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		targetPath, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", targetPath, err)
			}
		case tar.TypeReg:
			if err := writeFile(targetPath, tarReader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			links = append(links, pendingLink{name: header.Name, path: targetPath, target: header.Linkname})
		}
	}

	return createLinks(links)
}

// CreateZip creates a zip archive of srcDir with paths relative to srcDir.
func CreateZip(srcDir string, writer io.Writer) error {
	zipWriter := zip.NewWriter(writer)

	entries, err := collectEntries(srcDir)
	if err != nil {
		zipWriter.Close()
		return err
	}

	for _, e := range entries {
		if err := addEntryToZip(zipWriter, e); err != nil {
			zipWriter.Close()
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

func addEntryToZip(zipWriter *zip.Writer, e entry) error {
	header, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return fmt.Errorf("failed to create zip header for %s: %w", e.rel, err)
	}
	header.Name = e.rel
	if e.info.IsDir() {
		header.Name += "/"
		header.Method = zip.Store
	} else {
		header.Method = zip.Deflate
	}

	headerWriter, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", e.rel, err)
	}
	if e.info.IsDir() {
		return nil
	}
	if e.isSymlink() {
		if _, err := io.WriteString(headerWriter, e.link); err != nil {
			return fmt.Errorf("failed to write link %s to archive: %w", e.rel, err)
		}
		return nil
	}

	file, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", e.path, err)
	}
	defer file.Close()

	if _, err := io.Copy(headerWriter, file); err != nil {
		return fmt.Errorf("failed to write file %s to archive: %w", e.rel, err)
	}

	return nil
}

// ExtractZip extracts a zip archive from the provided reader to destDir.
// The whole archive is buffered since zip needs random access.
func ExtractZip(reader io.Reader, destDir string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read zip data: %w", err)
	}

	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to create zip reader: %w", err)
	}

	var links []pendingLink
	for _, file := range zipReader.File {
		link, err := extractZipFile(file, destDir)
		if err != nil {
			return err
		}
		if link != nil {
			links = append(links, *link)
		}
	}

	return createLinks(links)
}

// extractZipFile writes one zip entry. A symbolic link is returned for
// createLinks instead of being created.
func extractZipFile(file *zip.File, destDir string) (*pendingLink, error) {
	targetPath, err := safeJoin(destDir, file.Name)
	if err != nil {
		return nil, err
	}

	if file.FileInfo().IsDir() {
		return nil, os.MkdirAll(targetPath, 0755)
	}

	fileReader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s in archive: %w", file.Name, err)
	}
	defer fileReader.Close()

	if file.Mode()&fs.ModeSymlink != 0 {
		target, err := io.ReadAll(io.LimitReader(fileReader, maxLinkTarget))
		if err != nil {
			return nil, fmt.Errorf("failed to read link %s in archive: %w", file.Name, err)
		}
		return &pendingLink{name: file.Name, path: targetPath, target: string(target)}, nil
	}

	return nil, writeFile(targetPath, fileReader, file.Mode().Perm())
}

// pendingLink is a symbolic link read from an archive.
type pendingLink struct {
	name   string
	path   string
	target string
}

// createLinks creates symbolic links after every file and directory was
// extracted, so no archived entry is written through a link. A link whose
// own path passes through another archived link is rejected.
func createLinks(links []pendingLink) error {
	names := make(map[string]bool, len(links))
	for _, l := range links {
		names[strings.TrimSuffix(l.name, "/")] = true
	}

	for _, l := range links {
		parts := strings.Split(strings.TrimSuffix(l.name, "/"), "/")
		for i := 1; i < len(parts); i++ {
			if names[strings.Join(parts[:i], "/")] {
				return fmt.Errorf("illegal file path in archive: %s is below a symbolic link", l.name)
			}
		}
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", l.path, err)
		}
		if err := os.Symlink(l.target, l.path); err != nil {
			return fmt.Errorf("failed to create link %s: %w", l.path, err)
		}
	}
	return nil
}

// safeJoin joins an archive entry name onto destDir, rejecting names that
// would escape it.
func safeJoin(destDir, name string) (string, error) {
	targetPath := filepath.Join(destDir, filepath.FromSlash(name))
	if !util.IsWithin(destDir, targetPath) || filepath.Clean(targetPath) == filepath.Clean(destDir) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return targetPath, nil
}

func writeFile(targetPath string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", targetPath, err)
	}

	outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", targetPath, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("failed to extract file %s: %w", targetPath, err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", targetPath, err)
	}

	// OpenFile honours the umask, so apply the archived mode explicitly.
	if err := os.Chmod(targetPath, mode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", targetPath, err)
	}
	return nil
}
