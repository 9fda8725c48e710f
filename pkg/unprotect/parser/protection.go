package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ProtectionElement is the local name of the element that locks a worksheet.
// Matching ignores namespace and case.
const ProtectionElement = "sheetProtection"

// XMLError reports a worksheet part that could not be processed.
type XMLError struct {
	Path string
	Op   string // "read", "parse", "save"
	Err  error
}

func (e *XMLError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *XMLError) Unwrap() error {
	return e.Err
}

// NewXMLError creates a new XMLError.
func NewXMLError(path, op string, err error) *XMLError {
	return &XMLError{
		Path: path,
		Op:   op,
		Err:  err,
	}
}

// writeFile saves a rewritten part. Tests replace it to simulate write failures.
var writeFile = os.WriteFile

// element is a node of the span tree built from a document. start and end
// are byte offsets of the element's markup, end exclusive.
type element struct {
	name     xml.Name
	start    int64
	end      int64
	children []*element
}

// RemoveProtection strips protection elements from the XML file at path and
// returns how many were removed. The file is rewritten only when at least one
// element was removed.
func RemoveProtection(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, NewXMLError(path, "read", err)
	}

	out, removed, err := StripProtection(data)
	if err != nil {
		return 0, NewXMLError(path, "parse", err)
	}
	if removed == 0 {
		return 0, nil
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := writeFile(path, out, perm); err != nil {
		return 0, NewXMLError(path, "save", err)
	}
	return removed, nil
}

// StripProtection removes every protection element from an XML document.
// Bytes outside the removed elements are returned unchanged. When nothing is
// removed, data itself is returned.
func StripProtection(data []byte) ([]byte, int, error) {
	body, bom, enc, err := documentEncoding(data)
	if err != nil {
		return nil, 0, err
	}
	if enc != nil {
		if body, err = enc.NewDecoder().Bytes(body); err != nil {
			return nil, 0, err
		}
	}

	doc, err := parseTree(body)
	if err != nil {
		return nil, 0, err
	}
	if root := doc.children[0]; IsProtectionElement(root.name) {
		return nil, 0, fmt.Errorf("root element <%s> cannot be removed", root.name.Local)
	}

	matches, removed := collectProtection(doc)
	if removed == 0 {
		return data, 0, nil
	}

	out := cutElements(body, matches)
	if enc != nil {
		if out, err = enc.NewEncoder().Bytes(out); err != nil {
			return nil, 0, err
		}
	}
	if len(bom) > 0 {
		out = append(append([]byte{}, bom...), out...)
	}
	return out, removed, nil
}

// IsProtectionElement reports whether name is a protection element.
func IsProtectionElement(name xml.Name) bool {
	return strings.EqualFold(name.Local, ProtectionElement)
}

// parseTree parses a whole UTF-8 document into a span tree rooted at a
// synthetic document node.
func parseTree(data []byte) (*element, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = passthroughCharset

	doc := &element{end: int64(len(data))}
	stack := []*element{doc}
	for {
		offset := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name, start: offset}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			stack[len(stack)-1].end = d.InputOffset()
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) != 1 {
		return nil, io.ErrUnexpectedEOF
	}
	switch len(doc.children) {
	case 0:
		return nil, errors.New("document has no root element")
	case 1:
	default:
		return nil, fmt.Errorf("document has %d root elements", len(doc.children))
	}
	return doc, nil
}

// collectProtection walks the tree depth-first and returns the outermost
// protection elements in document order, together with the total number of
// protection elements including nested ones.
func collectProtection(doc *element) ([]*element, int) {
	var matches []*element
	count := 0

	var walk func(el *element, inside bool)
	walk = func(el *element, inside bool) {
		for _, child := range el.children {
			match := IsProtectionElement(child.name)
			if match {
				count++
				if !inside {
					matches = append(matches, child)
				}
			}
			walk(child, inside || match)
		}
	}
	walk(doc, false)

	return matches, count
}

// cutElements returns data with the byte ranges of the given non-overlapping,
// ordered elements removed.
func cutElements(data []byte, elements []*element) []byte {
	out := make([]byte, 0, len(data))
	var pos int64
	for _, el := range elements {
		out = append(out, data[pos:el.start]...)
		pos = el.end
	}
	return append(out, data[pos:]...)
}
