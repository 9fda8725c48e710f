package archive

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Verify opens the workbook at path and returns its sheet names.
// It fails if the workbook cannot be read or lists no sheets.
func Verify(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook lists no sheets")
	}
	return sheets, nil
}
