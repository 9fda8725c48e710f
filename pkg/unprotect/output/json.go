// Package output serializes run reports.
package output

import (
	"encoding/json"

	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/models"
)

// ReportToJSON serializes a run report to JSON.
func ReportToJSON(r *models.Report, pretty bool) ([]byte, error) {
	if r.Parts == nil {
		// Keep "parts" an array even when no worksheet was found.
		cp := *r
		cp.Parts = []models.PartResult{}
		r = &cp
	}
	if pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}
