// Package models defines the results reported by a protection removal run.
package models

// PartResult is the outcome of stripping a single worksheet part.
type PartResult struct {
	// Path is the archive-relative slash path of the part (e.g. xl/worksheets/sheet1.xml).
	Path string `json:"path"`
	// SheetName is the workbook sheet name the part belongs to, when it could be resolved.
	SheetName string `json:"sheet_name,omitempty"`
	// Removed is the number of protection elements removed from the part.
	Removed int `json:"removed"`
	// Error holds the parse or save failure for the part, if any.
	Error string `json:"error,omitempty"`
}

// Modified reports whether the part was rewritten.
func (p PartResult) Modified() bool {
	return p.Removed > 0 && p.Error == ""
}

// Failed reports whether the part could not be processed.
func (p PartResult) Failed() bool {
	return p.Error != ""
}

// Report is the workbook-level summary of a run.
type Report struct {
	// Input is the path of the source workbook.
	Input string `json:"input"`
	// Output is the path of the written workbook (empty if the run failed before building).
	Output string `json:"output,omitempty"`
	// Parts lists every worksheet part in processing order.
	Parts []PartResult `json:"parts"`
}

// ModifiedCount returns the number of parts that had protection removed.
func (r *Report) ModifiedCount() int {
	n := 0
	for _, p := range r.Parts {
		if p.Modified() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of parts that could not be processed.
func (r *Report) FailedCount() int {
	n := 0
	for _, p := range r.Parts {
		if p.Failed() {
			n++
		}
	}
	return n
}
