package tables

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reference table names.
const (
	ProductSpecifications = "product_specifications"
	Finance               = "finance"
	FundingCurve          = "fundingcurve"
	SizePremia            = "sizepremia"
	TermPremia            = "termpremia"
	CreditPremia          = "credit_premia"
	TermRiskDiscount      = "term_risk_discount"
	MarketSimple          = "market_simple_table"
)

// Table is a decoded reference table: a header row plus string cells.
// Cells are whitespace-trimmed; numeric coercion happens on access.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a table from a header and data rows. Rows shorter than the
// header are padded with empty cells. The first occurrence of a duplicated
// column name wins.
func NewTable(name string, header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("table %s has no header", name)
	}

	t := &Table{
		Name:    name,
		Columns: make([]string, len(header)),
		Rows:    make([][]string, 0, len(rows)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		col := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.Columns[i] = col
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}

	for _, r := range rows {
		if isBlank(r) {
			continue
		}
		row := make([]string, len(header))
		for i := range row {
			if i < len(r) {
				row[i] = strings.TrimSpace(r[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.index[col]
	return ok
}

// String returns the raw cell at row/col.
func (t *Table) String(row int, col string) (string, error) {
	i, ok := t.index[col]
	if !ok {
		return "", fmt.Errorf("table %s has no column %q", t.Name, col)
	}
	if row < 0 || row >= len(t.Rows) {
		return "", fmt.Errorf("table %s has no row %d", t.Name, row)
	}
	return t.Rows[row][i], nil
}

// Float returns the cell at row/col parsed as a float64.
func (t *Table) Float(row int, col string) (float64, error) {
	s, err := t.String(row, col)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("table %s row %d column %q: %q is not numeric", t.Name, row, col, s)
	}
	return f, nil
}

func isBlank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
