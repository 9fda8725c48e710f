package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

// Extract unpacks every entry of the ZIP archive at src into dst, recreating
// the archive's directory structure. dst must already exist.
// It returns the names of the extracted file entries in archive order.
func Extract(src, dst string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		if r != nil {
			r.Close()
		}
		if encrypted, _ := DetectEncrypted(src); encrypted {
			return nil, ErrEncryptedWorkbook
		}
		return nil, fmt.Errorf("%w: %v", ErrArchiveFormat, err)
	}
	defer r.Close()

	r.RegisterDecompressor(zip.Deflate, flate.NewReader)

	var names []string
	for _, f := range r.File {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		target, err := entryTarget(dst, name)
		if err != nil {
			return names, err
		}

		if strings.HasSuffix(name, "/") || f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return names, err
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return names, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		names = append(names, name)
	}

	return names, nil
}

// entryTarget resolves an entry name below dst, rejecting names that would
// escape it.
func entryTarget(dst, name string) (string, error) {
	rel := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: illegal entry path %q", ErrArchiveFormat, name)
	}
	return filepath.Join(dst, rel), nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Keep entry timestamps so Build can carry them into the output archive.
	return os.Chtimes(target, f.Modified, f.Modified)
}
