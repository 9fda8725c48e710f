// Package parser locates worksheet parts inside an extracted workbook and
// rewrites them.
package parser

import (
	"encoding/xml"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WorksheetsPath is the conventional slash path of the worksheet parts.
const WorksheetsPath = "xl/worksheets"

// ErrMissingWorksheets indicates the extracted archive has no xl/worksheets directory.
var ErrMissingWorksheets = errors.New("could not find 'xl/worksheets' directory")

// WorksheetsDir returns the worksheets directory below an extraction root.
func WorksheetsDir(root string) string {
	return filepath.Join(root, filepath.FromSlash(WorksheetsPath))
}

// FindWorksheets returns the *.xml files directly inside the worksheets
// directory, sorted by name. Subdirectories are not searched.
func FindWorksheets(root string) ([]string, error) {
	dir := WorksheetsDir(root)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, ErrMissingWorksheets
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// SheetNames maps worksheet part paths (slash-separated, relative to root) to
// the sheet names declared in xl/workbook.xml. Parts that cannot be resolved
// are simply absent from the result.
func SheetNames(root string) map[string]string {
	result := make(map[string]string)

	workbookXML, err := os.ReadFile(filepath.Join(root, "xl", "workbook.xml"))
	if err != nil {
		return result
	}
	sheetsInfo := parseWorkbookSheets(workbookXML)
	if len(sheetsInfo) == 0 {
		return result
	}

	relsXML, err := os.ReadFile(filepath.Join(root, "xl", "_rels", "workbook.xml.rels"))
	if err != nil {
		return result
	}

	for rID, target := range parseWorkbookRels(relsXML) {
		if name, ok := sheetsInfo[rID]; ok {
			result[target] = name
		}
	}
	return result
}

// eachElement calls fn with the attributes, keyed by local name, of every
// element named local in data. Scanning stops at the first syntax error; the
// callers only need what could be read up to that point.
func eachElement(data []byte, local string, fn func(attrs map[string]string)) {
	decoder := newDecoder(data)
	for {
		token, err := decoder.Token()
		if err != nil {
			return
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}
		attrs := make(map[string]string, len(se.Attr))
		for _, attr := range se.Attr {
			attrs[attr.Name.Local] = attr.Value
		}
		fn(attrs)
	}
}

// parseWorkbookSheets maps the relationship id of each <sheet> declared in
// workbook.xml to its display name. The r:id attribute is matched by local
// name so both transitional and strict namespaces resolve.
func parseWorkbookSheets(data []byte) map[string]string {
	result := make(map[string]string)
	eachElement(data, "sheet", func(attrs map[string]string) {
		if name, rID := attrs["name"], attrs["id"]; name != "" && rID != "" {
			result[rID] = name
		}
	})
	return result
}

// parseWorkbookRels maps relationship ids to worksheet part paths. Chartsheets,
// styles and every other relationship type are ignored.
func parseWorkbookRels(data []byte) map[string]string {
	result := make(map[string]string)
	eachElement(data, "Relationship", func(attrs map[string]string) {
		rID, target := attrs["Id"], attrs["Target"]
		if rID == "" || target == "" || !strings.HasSuffix(strings.ToLower(attrs["Type"]), "/worksheet") {
			return
		}
		result[rID] = resolvePartPath(target, "xl")
	})
	return result
}

// resolvePartPath resolves a relationship target against the directory of
// the part that owns the relationship.
func resolvePartPath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Join(baseDir, target)
}
