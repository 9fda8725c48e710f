package unprotect_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daniel-leinweber/ExcelProtectionRemover/internal/testutil"
	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect"
	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/models"
	"github.com/stretchr/testify/require"
)

const (
	sheet1 = "xl/worksheets/sheet1.xml"
	sheet2 = "xl/worksheets/sheet2.xml"
)

// isolatedOptions places working directories under a test-owned directory so
// cleanup can be asserted.
func isolatedOptions(t *testing.T) (unprotect.Options, string) {
	t.Helper()
	tmp := t.TempDir()
	opts := unprotect.DefaultOptions()
	opts.TempDir = tmp
	return opts, tmp
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "working directory left behind")
}

func TestRunRemovesProtection(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteProtectedWorkbook(t, dir, "book.xlsx")
	output := filepath.Join(dir, "unprotected.xlsx")

	opts, tmp := isolatedOptions(t)
	var seen []models.PartResult
	opts.OnPart = func(p models.PartResult) { seen = append(seen, p) }

	report, err := unprotect.Run(input, output, opts)
	require.NoError(t, err)
	requireEmptyDir(t, tmp)

	require.Equal(t, output, report.Output)
	require.Equal(t, []models.PartResult{
		{Path: sheet1, SheetName: "Sheet1", Removed: 1},
		{Path: sheet2, SheetName: "Sheet2"},
	}, report.Parts)
	require.Equal(t, report.Parts, seen)
	require.Equal(t, 1, report.ModifiedCount())
	require.Zero(t, report.FailedCount())

	before := testutil.ReadZip(t, input)
	after := testutil.ReadZip(t, output)
	require.Len(t, after, len(before))

	require.True(t, bytes.Contains(before[sheet1], []byte("<sheetProtection")))
	require.False(t, bytes.Contains(after[sheet1], []byte("sheetProtection")))
	for name, data := range before {
		if name == sheet1 {
			continue
		}
		require.Equal(t, data, after[name], "entry %s changed", name)
	}

	again, err := unprotect.Run(output, filepath.Join(dir, "again.xlsx"), unprotect.Options{Verify: true})
	require.NoError(t, err)
	require.Zero(t, again.ModifiedCount())
}

func TestRunWorkingDirectoryName(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteProtectedWorkbook(t, dir, "book.xlsx")

	opts, tmp := isolatedOptions(t)
	var workDirs []string
	opts.OnPart = func(models.PartResult) {
		entries, err := os.ReadDir(tmp)
		require.NoError(t, err)
		for _, e := range entries {
			workDirs = append(workDirs, e.Name())
		}
	}

	_, err := unprotect.Run(input, filepath.Join(dir, "out.xlsx"), opts)
	require.NoError(t, err)

	require.Len(t, workDirs, 2)
	require.Equal(t, workDirs[0], workDirs[1])
	require.True(t, strings.HasPrefix(workDirs[0], "ExcelProtection_"), workDirs[0])
	require.Greater(t, len(workDirs[0]), len("ExcelProtection_"))
	requireEmptyDir(t, tmp)

	// A second run gets a fresh directory.
	first := workDirs[0]
	workDirs = nil
	_, err = unprotect.Run(input, filepath.Join(dir, "out2.xlsx"), opts)
	require.NoError(t, err)
	require.NotEqual(t, first, workDirs[0])
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteProtectedWorkbook(t, dir, "book.xlsx")
	first := filepath.Join(dir, "first.xlsx")
	second := filepath.Join(dir, "second.xlsx")

	_, err := unprotect.Run(input, first, unprotect.DefaultOptions())
	require.NoError(t, err)

	report, err := unprotect.Run(first, second, unprotect.DefaultOptions())
	require.NoError(t, err)
	require.Zero(t, report.ModifiedCount())
	require.Len(t, report.Parts, 2)

	require.Equal(t, testutil.ReadZip(t, first), testutil.ReadZip(t, second))
}

func TestRunNamespacesAndCase(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "book.XLSX")
	testutil.WriteZip(t, input,
		testutil.Entry{Name: "[Content_Types].xml", Data: "<Types/>"},
		testutil.Entry{Name: "xl/worksheets/sheet1.xml", Data: `<x:worksheet xmlns:x="urn:x"><x:sheetProtection sheet="1"/></x:worksheet>`},
		testutil.Entry{Name: "xl/worksheets/sheet2.xml", Data: testutil.WorksheetXML(`<SHEETPROTECTION/><sheetView/>`)},
		testutil.Entry{Name: "xl/worksheets/sheet3.xml", Data: testutil.WorksheetXML(`<sheetViews><sheetView/></sheetViews>`)},
		testutil.Entry{Name: "xl/worksheets/sub/sheet4.xml", Data: testutil.WorksheetXML(`<sheetProtection/>`)},
	)
	output := filepath.Join(dir, "out.xlsx")

	report, err := unprotect.Run(input, output, unprotect.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, report.Parts, 3)
	require.Equal(t, 2, report.ModifiedCount())

	after := testutil.ReadZip(t, output)
	require.Equal(t, `<x:worksheet xmlns:x="urn:x"></x:worksheet>`, string(after["xl/worksheets/sheet1.xml"]))
	require.Equal(t, testutil.WorksheetXML(`<sheetView/>`), string(after["xl/worksheets/sheet2.xml"]))
	require.Equal(t, testutil.WorksheetXML(`<sheetViews><sheetView/></sheetViews>`), string(after["xl/worksheets/sheet3.xml"]))
	// Nested worksheet storage is not searched.
	require.Equal(t, testutil.WorksheetXML(`<sheetProtection/>`), string(after["xl/worksheets/sub/sheet4.xml"]))
}

func TestRunIsolatesBrokenParts(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "book.xlsx")
	testutil.WriteZip(t, input,
		testutil.Entry{Name: "xl/worksheets/sheet1.xml", Data: `<worksheet><sheetProtection/>`},
		testutil.Entry{Name: "xl/worksheets/sheet2.xml", Data: testutil.WorksheetXML(`<sheetProtection sheet="1"/>`)},
	)
	output := filepath.Join(dir, "out.xlsx")

	report, err := unprotect.Run(input, output, unprotect.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, report.Parts, 2)

	require.True(t, report.Parts[0].Failed())
	require.Contains(t, report.Parts[0].Error, "parse failed")
	require.True(t, report.Parts[1].Modified())
	require.Equal(t, 1, report.FailedCount())

	after := testutil.ReadZip(t, output)
	require.Equal(t, `<worksheet><sheetProtection/>`, string(after["xl/worksheets/sheet1.xml"]))
	require.Equal(t, testutil.WorksheetXML(""), string(after["xl/worksheets/sheet2.xml"]))
}

func TestRunValidation(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.xlsx")

	wrongExt := filepath.Join(dir, "book.zip")
	testutil.WriteZip(t, wrongExt, testutil.Entry{Name: "xl/worksheets/sheet1.xml", Data: "<worksheet/>"})

	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"missing file", filepath.Join(dir, "missing.xlsx"), unprotect.ErrInputNotFound},
		{"directory", dir, unprotect.ErrInputNotFound},
		{"wrong extension", wrongExt, unprotect.ErrInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, tmp := isolatedOptions(t)
			report, err := unprotect.Run(tt.input, output, opts)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, report)
			require.NoFileExists(t, output)
			requireEmptyDir(t, tmp)
		})
	}
}

func TestRunMissingWorksheets(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "book.xlsx")
	testutil.WriteZip(t, input,
		testutil.Entry{Name: "[Content_Types].xml", Data: "<Types/>"},
		testutil.Entry{Name: "xl/workbook.xml", Data: "<workbook/>"},
	)
	output := filepath.Join(dir, "out.xlsx")

	opts, tmp := isolatedOptions(t)
	_, err := unprotect.Run(input, output, opts)
	require.ErrorIs(t, err, unprotect.ErrMissingWorksheets)

	var perr *unprotect.ProcessingError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, "locate", perr.Stage)

	require.NoFileExists(t, output)
	requireEmptyDir(t, tmp)
}

func TestRunCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "book.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("definitely not a zip"), 0644))

	opts, tmp := isolatedOptions(t)
	_, err := unprotect.Run(input, filepath.Join(dir, "out.xlsx"), opts)
	require.ErrorIs(t, err, unprotect.ErrArchiveFormat)
	requireEmptyDir(t, tmp)
}

func TestRunEncryptedWorkbook(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteEncryptedWorkbook(t, dir, "locked.xlsx")

	_, err := unprotect.Run(input, filepath.Join(dir, "out.xlsx"), unprotect.DefaultOptions())
	require.ErrorIs(t, err, unprotect.ErrEncryptedWorkbook)
}

func TestRunOverwritesOutput(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteProtectedWorkbook(t, dir, "book.xlsx")
	output := filepath.Join(dir, "out.xlsx")
	require.NoError(t, os.WriteFile(output, []byte("old"), 0644))

	_, err := unprotect.Run(input, output, unprotect.DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, testutil.ReadZip(t, output), sheet1)
}

func TestRunOutputNotWritable(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteProtectedWorkbook(t, dir, "book.xlsx")
	output := filepath.Join(dir, "no-such-dir", "out.xlsx")

	opts, tmp := isolatedOptions(t)
	report, err := unprotect.Run(input, output, opts)

	var perr *unprotect.ProcessingError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, "build", perr.Stage)
	require.Len(t, report.Parts, 2)
	require.Empty(t, report.Output)
	requireEmptyDir(t, tmp)
}

func TestRunLeavesInputUntouched(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteProtectedWorkbook(t, dir, "book.xlsx")
	original, err := os.ReadFile(input)
	require.NoError(t, err)

	_, err = unprotect.Run(input, filepath.Join(dir, "out.xlsx"), unprotect.DefaultOptions())
	require.NoError(t, err)

	current, err := os.ReadFile(input)
	require.NoError(t, err)
	require.Equal(t, original, current)
}
