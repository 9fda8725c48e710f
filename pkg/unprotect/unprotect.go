package unprotect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/archive"
	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/models"
	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/parser"
)

// Run removes worksheet protection from the workbook at input and writes the
// result to output.
//
// Validation failures return before any working directory is created. After
// that, every error is wrapped in a *ProcessingError and the working
// directory is removed on all paths. A worksheet part that fails to parse or
// save is recorded in the report and does not stop the run.
func Run(input, output string, opts Options) (*models.Report, error) {
	log := opts.logger()

	if err := Validate(input); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(opts.TempDir, WorkDirPattern)
	if err != nil {
		return nil, NewProcessingError("extract", err)
	}
	log.Debug("Working directory created.", "path", workDir)
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Debug("Failed to remove working directory.", "path", workDir, "error", err)
		}
	}()

	report := &models.Report{Input: input}

	entries, err := archive.Extract(input, workDir)
	if err != nil {
		return report, NewProcessingError("extract", err)
	}
	log.Debug("Archive extracted.", "entries", len(entries))

	parts, err := parser.FindWorksheets(workDir)
	if err != nil {
		return report, NewProcessingError("locate", err)
	}
	log.Debug("Worksheet parts located.", "count", len(parts))

	sheetNames := parser.SheetNames(workDir)
	for _, part := range parts {
		result := stripPart(workDir, part, sheetNames)
		if result.Failed() {
			log.Warn("Worksheet part skipped.", "part", result.Path, "error", result.Error)
		}
		report.Parts = append(report.Parts, result)
		opts.notify(result)
	}

	if err := archive.Build(workDir, output); err != nil {
		return report, NewProcessingError("build", err)
	}
	report.Output = output
	log.Debug("Archive written.", "path", output, "modified", report.ModifiedCount())

	if opts.Verify {
		sheets, err := archive.Verify(output)
		if err != nil {
			return report, NewProcessingError("verify", err)
		}
		log.Debug("Output workbook verified.", "sheets", len(sheets))
	}

	return report, nil
}

func stripPart(workDir, part string, sheetNames map[string]string) models.PartResult {
	rel, err := filepath.Rel(workDir, part)
	if err != nil {
		rel = part
	}
	rel = filepath.ToSlash(rel)

	result := models.PartResult{
		Path:      rel,
		SheetName: sheetNames[rel],
	}

	removed, err := parser.RemoveProtection(part)
	if err != nil {
		result.Error = err.Error()
		var xerr *XMLError
		if errors.As(err, &xerr) {
			// The temporary file path means nothing to the caller.
			result.Error = fmt.Sprintf("%s failed: %v", xerr.Op, xerr.Err)
		}
		return result
	}
	result.Removed = removed
	return result
}
