package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type entry struct {
	name string // slash-separated, relative to the source directory
	path string
	info fs.FileInfo
}

// Build packs the contents of srcDir into a new ZIP archive at out using the
// best deflate compression. srcDir itself is not an entry. An existing file at
// out is deleted first.
func Build(srcDir, out string) (err error) {
	entries, err := collectEntries(srcDir)
	if err != nil {
		return err
	}

	if info, statErr := os.Lstat(out); statErr == nil {
		if info.IsDir() {
			return fmt.Errorf("output path %s is a directory", out)
		}
		if err := os.Remove(out); err != nil {
			return fmt.Errorf("remove existing output: %w", err)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, bestCompressor)

	for _, e := range entries {
		if err := addEntry(zw, e); err != nil {
			return fmt.Errorf("add %s: %w", e.name, err)
		}
	}

	return zw.Close()
}

// collectEntries lists files and empty directories below root in lexical
// order, with [Content_Types].xml moved to the front.
func collectEntries(root string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			children, err := os.ReadDir(path)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				return nil
			}
		} else if !info.Mode().IsRegular() {
			return nil
		}

		entries = append(entries, entry{
			name: filepath.ToSlash(rel),
			path: path,
			info: info,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		if e.name == ContentTypesEntry && i > 0 {
			copy(entries[1:i+1], entries[:i])
			entries[0] = e
			break
		}
	}

	return entries, nil
}

func addEntry(zw *zip.Writer, e entry) error {
	hdr, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return err
	}
	hdr.Name = e.name

	if e.info.IsDir() {
		hdr.Name += "/"
		hdr.Method = zip.Store
		_, err := zw.CreateHeader(hdr)
		return err
	}

	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	src, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(w, src)
	return err
}

// ReadEntry returns the contents of the named entry of the archive at path.
func ReadEntry(path, name string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s: %w", name, fs.ErrNotExist)
}
