package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Supported table file extensions.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// Decode reads a table encoded according to ext.
func Decode(name, ext string, r io.Reader) (*Table, error) {
	switch strings.ToLower(ext) {
	case ExtCSV:
		return decodeCSV(name, r)
	case ExtXLSX:
		return decodeXLSX(name, r)
	default:
		return nil, fmt.Errorf("table %s: unsupported format %q", name, ext)
	}
}

func decodeCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table %s: malformed csv: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table %s is empty", name)
	}
	return NewTable(name, records[0], records[1:])
}

// decodeXLSX reads the first sheet of a workbook.
func decodeXLSX(name string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("table %s: malformed workbook: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("table %s: workbook has no sheets", name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("table %s: read sheet %q: %w", name, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %s is empty", name)
	}
	return NewTable(name, rows[0], rows[1:])
}
