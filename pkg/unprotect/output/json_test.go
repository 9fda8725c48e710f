package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/models"
)

func TestReportToJSON(t *testing.T) {
	report := &models.Report{
		Input:  "in.xlsx",
		Output: "out.xlsx",
		Parts: []models.PartResult{
			{Path: "xl/worksheets/sheet1.xml", SheetName: "Sheet1", Removed: 1},
			{Path: "xl/worksheets/sheet2.xml", Error: "parse failed: unexpected EOF"},
		},
	}

	data, err := ReportToJSON(report, false)
	if err != nil {
		t.Fatalf("ReportToJSON failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	parts, ok := decoded["parts"].([]interface{})
	if !ok || len(parts) != 2 {
		t.Fatalf("Expected 2 parts, got %v", decoded["parts"])
	}
	first := parts[0].(map[string]interface{})
	if first["sheet_name"] != "Sheet1" || first["removed"] != float64(1) {
		t.Errorf("unexpected first part: %v", first)
	}
	second := parts[1].(map[string]interface{})
	if _, ok := second["sheet_name"]; ok {
		t.Errorf("empty sheet name should be omitted: %v", second)
	}
}

func TestReportToJSONEmptyParts(t *testing.T) {
	data, err := ReportToJSON(&models.Report{Input: "in.xlsx"}, true)
	if err != nil {
		t.Fatalf("ReportToJSON failed: %v", err)
	}
	if !strings.Contains(string(data), `"parts": []`) {
		t.Errorf("Expected empty parts array, got %s", data)
	}
	if strings.Contains(string(data), `"output"`) {
		t.Errorf("Expected output to be omitted, got %s", data)
	}
}
