package pricing

import (
	"fmt"
	"math"

	"github.com/Checker-Finance/loan-pricer/internal/tables"
)

// nearestRow returns the row whose keyCol value is closest to target.
// Ties go to the earliest row in table order.
func nearestRow(tbl *tables.Table, keyCol string, target float64) (int, error) {
	best, bestDist := -1, math.Inf(1)
	for i := 0; i < tbl.Len(); i++ {
		k, err := tbl.Float(i, keyCol)
		if err != nil {
			return -1, err
		}
		if d := math.Abs(k - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return -1, fmt.Errorf("%w: table %s is empty", ErrNoMatchingBand, tbl.Name)
	}
	return best, nil
}

// nearestValue reads valueCol at the row nearest to target on keyCol.
func nearestValue(tbl *tables.Table, keyCol string, target float64, valueCol string) (float64, error) {
	if !tbl.HasColumn(valueCol) {
		return 0, fmt.Errorf("%w: table %s has no column %q", ErrNoMatchingBand, tbl.Name, valueCol)
	}
	row, err := nearestRow(tbl, keyCol, target)
	if err != nil {
		return 0, err
	}
	return tbl.Float(row, valueCol)
}

// lookupKey returns valueCol at the first row whose keyCol equals key.
func lookupKey(tbl *tables.Table, keyCol, key, valueCol string) (float64, error) {
	for i := 0; i < tbl.Len(); i++ {
		k, err := tbl.String(i, keyCol)
		if err != nil {
			return 0, err
		}
		if k == key {
			return tbl.Float(i, valueCol)
		}
	}
	return 0, fmt.Errorf("%w: table %s has no %s %q", ErrNoMatchingBand, tbl.Name, keyCol, key)
}
