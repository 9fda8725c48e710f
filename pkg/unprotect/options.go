// Package unprotect removes worksheet protection from .xlsx workbooks.
//
// A run unpacks the workbook into a private working directory, cuts every
// sheetProtection element out of the worksheet parts and packs the result
// into a new archive. The working directory is always removed afterwards.
package unprotect

import (
	"log/slog"

	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/models"
)

// Extension is the only accepted input file extension (compared case-insensitively).
const Extension = ".xlsx"

// WorkDirPattern is the os.MkdirTemp pattern for the working directory.
const WorkDirPattern = "ExcelProtection_*"

// Options configures a run.
type Options struct {
	// TempDir is the parent of the working directory.
	// If empty, the platform temp directory is used.
	TempDir string
	// Logger receives debug and warning records. If nil, logs are discarded.
	Logger *slog.Logger
	// OnPart is called for every worksheet part right after it is processed.
	OnPart func(models.PartResult)
	// Verify reopens the written workbook and fails the run if it cannot be read.
	Verify bool
}

// DefaultOptions returns default run options.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (o Options) notify(p models.PartResult) {
	if o.OnPart != nil {
		o.OnPart(p)
	}
}
