// Package testutil builds workbook fixtures for tests.
package testutil

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Entry is a single file written into a fixture archive.
type Entry struct {
	Name string
	Data string
}

// WorksheetXML wraps body in a SpreadsheetML worksheet root element.
func WorksheetXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		body + `</worksheet>`
}

// WriteZip writes entries, in order, to a new archive at path.
func WriteZip(t *testing.T, path string, entries ...Entry) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		require.NoError(t, err, "zip create %s", e.Name)
		_, err = io.WriteString(w, e.Data)
		require.NoError(t, err, "zip write %s", e.Name)
	}
	require.NoError(t, zw.Close())
}

// ReadZip returns every file entry of the archive at path keyed by name.
func ReadZip(t *testing.T, path string) map[string][]byte {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	result := make(map[string][]byte)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		result[f.Name] = data
	}
	return result
}

// ZipNames returns the entry names of the archive at path in archive order.
func ZipNames(t *testing.T, path string) []string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

// WriteProtectedWorkbook saves a two-sheet workbook to dir/name. Sheet1 is
// protected with a password, Sheet2 is not.
func WriteProtectedWorkbook(t *testing.T, dir, name string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Header1"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 100))
	_, err := f.NewSheet("Sheet2")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet2", "B2", "Text"))

	require.NoError(t, f.ProtectSheet("Sheet1", &excelize.SheetProtectionOptions{
		Password:    "secret",
		FormatCells: true,
	}))

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteEncryptedWorkbook saves a workbook protected by a file-open password.
func WriteEncryptedWorkbook(t *testing.T, dir, name string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "secret"))

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path, excelize.Options{Password: "password"}))
	return path
}
