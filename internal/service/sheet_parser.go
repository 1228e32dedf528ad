package service

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSpreadsheetUnreadable indicates the workbook could not be parsed.
var ErrSpreadsheetUnreadable = errors.New("spreadsheet could not be read")

// SheetParser turns a workbook into row records keyed by the header row.
type SheetParser interface {
	Parse(r io.Reader) ([]map[string]interface{}, error)
}

type excelSheetParser struct{}

// NewExcelSheetParser parses the first worksheet of an .xlsx workbook.
// Empty cells become null, numeric cells become numbers, and blank rows are skipped.
func NewExcelSheetParser() SheetParser {
	return excelSheetParser{}
}

func (excelSheetParser) Parse(r io.Reader) ([]map[string]interface{}, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = workbook.Close()
	}()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, 0)
	if len(rows) == 0 {
		return records, nil
	}

	header := headerKeys(rows[0])
	for _, row := range rows[1:] {
		record := make(map[string]interface{}, len(header))
		empty := true
		for i, key := range header {
			var value interface{}
			if i < len(row) {
				value = cellValue(row[i])
			}
			if value != nil {
				empty = false
			}
			record[key] = value
		}
		if !empty {
			records = append(records, record)
		}
	}

	return records, nil
}

func headerKeys(cells []string) []string {
	keys := make([]string, len(cells))
	seen := make(map[string]int, len(cells))
	for i, cell := range cells {
		key := strings.TrimSpace(cell)
		if key == "" {
			key = fmt.Sprintf("column_%d", i+1)
		}
		if count := seen[key]; count > 0 {
			seen[key] = count + 1
			key = fmt.Sprintf("%s_%d", key, count)
		} else {
			seen[key] = 1
		}
		keys[i] = key
	}
	return keys
}

func cellValue(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if number, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(number) && !math.IsInf(number, 0) {
		return number
	}
	return raw
}
