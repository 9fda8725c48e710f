package unprotect

import (
	"errors"
	"fmt"

	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/archive"
	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/parser"
)

// ErrInputNotFound indicates the input path does not reference an existing file.
var ErrInputNotFound = errors.New("input file does not exist")

// ErrInvalidExtension indicates the input file does not carry the .xlsx extension.
var ErrInvalidExtension = errors.New("input file must have an .xlsx extension")

// Errors surfaced from the pipeline stages, re-exported so callers only need this package.
var (
	ErrArchiveFormat     = archive.ErrArchiveFormat
	ErrEncryptedWorkbook = archive.ErrEncryptedWorkbook
	ErrMissingWorksheets = parser.ErrMissingWorksheets
)

// XMLError reports a worksheet part that could not be parsed or saved.
type XMLError = parser.XMLError

// ProcessingError wraps any failure after the working directory was created.
type ProcessingError struct {
	Stage string // "extract", "locate", "strip", "build", "verify"
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError creates a new ProcessingError.
func NewProcessingError(stage string, err error) *ProcessingError {
	return &ProcessingError{
		Stage: stage,
		Err:   err,
	}
}
