package source

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"lineage/internal/genealogy/tree"
)

// DecodeWorkbook reads records from the first sheet of a workbook. The first
// non-empty row is the header; numeric id and date cells are passed on as
// numbers so spreadsheet day counts reach the date normalizer intact.
func DecodeWorkbook(r io.Reader) ([]tree.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, malformed("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, malformed("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, malformed("read sheet %q: %v", sheets[0], err)
	}

	var header []string
	records := make([]tree.Record, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if header == nil {
			header = make([]string, len(row))
			for i, cell := range row {
				header[i] = strings.ToLower(strings.TrimSpace(cell))
			}
			if !contains(header, FieldName) {
				return nil, malformed("sheet %q has no %q column", sheets[0], FieldName)
			}
			continue
		}
		fields := make(map[string]any, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" || cell == "" {
				continue
			}
			fields[header[i]] = cellValue(header[i], cell)
		}
		records = append(records, toRecord(fields))
	}
	if header == nil {
		return nil, malformed("sheet %q is empty", sheets[0])
	}
	return records, nil
}

func cellValue(column, cell string) any {
	switch column {
	case FieldDate, FieldID, FieldParentID:
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			return json.Number(strings.TrimSpace(cell))
		}
	}
	return cell
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
