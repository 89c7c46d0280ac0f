package fileparse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is parsed tabular content: ordered column names plus row maps.
// TotalRows is the full data row count of the file, independent of how many
// rows were materialized into Rows.
type Table struct {
	Columns   []string
	Rows      []map[string]any
	TotalRows int
}

// ParseTabular dispatches on extension. maxRows bounds how many rows are
// materialized; pass a negative value for all rows. The full row count is
// always computed (the upload is already buffered in memory, so the extra
// scan is cheap).
func ParseTabular(filename string, data []byte, maxRows int) (*Table, error) {
	switch Ext(filename) {
	case "csv":
		return ParseCSV(data, maxRows)
	case "xlsx", "xls":
		return ParseXLSX(data, maxRows)
	default:
		return nil, fmt.Errorf("not a tabular file: %s", filename)
	}
}

// ParseCSV reads the header and up to maxRows data rows, counting the rest.
func ParseCSV(data []byte, maxRows int) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	t := &Table{Columns: columns}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		t.TotalRows++
		if maxRows >= 0 && len(t.Rows) >= maxRows {
			continue
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = coerceNumeric(rec[i])
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseXLSX reads the first sheet of an Excel workbook. The first row is the
// header; remaining rows are data.
func ParseXLSX(data []byte, maxRows int) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	t := &Table{}
	for rows.Next() {
		rec, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet row: %w", err)
		}
		if t.Columns == nil {
			for _, h := range rec {
				t.Columns = append(t.Columns, strings.TrimSpace(h))
			}
			continue
		}
		t.TotalRows++
		if maxRows >= 0 && len(t.Rows) >= maxRows {
			continue
		}
		row := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = coerceNumeric(rec[i])
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if t.Columns == nil {
		return nil, fmt.Errorf("empty workbook sheet")
	}
	return t, nil
}

// coerceNumeric converts numeric-looking cells to float64 so previews and
// chunk text carry numbers, not strings.
func coerceNumeric(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	return s
}

// RenderRow formats a row in stable column order for chunking.
func RenderRow(columns []string, row map[string]any) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString(": ")
		fmt.Fprintf(&b, "%v", row[col])
	}
	return b.String()
}
