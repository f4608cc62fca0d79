package pricesheet

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Prices"

// Fixed columns; distributor columns follow from column G on.
var fixedHeaders = []string{"Item ID", "Name", "Unit", "Cost", "Source", "Min stock"}

// BuildWorkbook renders the price sheet as an xlsx workbook: fixed
// computed columns plus one column per known distributor.
func BuildWorkbook(rows []PriceRow) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	distributors := distributorColumns(rows)

	headers := append(append([]string{}, fixedHeaders...), distributors...)
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		line := i + 2

		values := []any{row.ItemID, row.Name, row.Unit, nil, row.CostSource, nil}
		if row.ComputedCost != nil {
			values[3] = *row.ComputedCost
		}
		if row.MinLevel != nil {
			values[5] = *row.MinLevel
		}
		for _, d := range distributors {
			if price, ok := row.DistributorPrices[d]; ok {
				values = append(values, price)
			} else {
				values = append(values, nil)
			}
		}

		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, line)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// ParseWorkbook reads an uploaded workbook back, extracting operator
// edits: distributor prices and min stock levels. The computed cost
// and source columns are ignored on import — they belong to the sync,
// and a stale uploaded copy must not roll them back.
func ParseWorkbook(r io.Reader) (edits []ManualEdit, minLevels map[string]float64, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	header := rows[0]
	minLevels = make(map[string]float64)

	for _, line := range rows[1:] {
		if len(line) == 0 || strings.TrimSpace(line[0]) == "" {
			continue
		}
		itemID := strings.TrimSpace(line[0])

		if len(line) > 5 {
			if level, ok := parsePrice(line[5]); ok {
				minLevels[itemID] = level
			}
		}

		for col := len(fixedHeaders); col < len(line) && col < len(header); col++ {
			distributor := strings.TrimSpace(header[col])
			if distributor == "" {
				continue
			}
			price, ok := parsePrice(line[col])
			if !ok {
				continue
			}
			edits = append(edits, ManualEdit{
				ItemID:      itemID,
				Distributor: distributor,
				Price:       price,
			})
		}
	}

	return edits, minLevels, nil
}

// parsePrice coerces a hand-typed sheet cell into a price. Operators
// paste values with comma decimals and group spaces; decimal survives
// that noise where a bare float scan would not. Non-positive and
// unparseable cells are treated as empty.
func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, false
	}

	f, _ := d.Float64()
	return f, true
}

func distributorColumns(rows []PriceRow) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for d := range row.DistributorPrices {
			seen[d] = true
		}
	}

	distributors := make([]string, 0, len(seen))
	for d := range seen {
		distributors = append(distributors, d)
	}
	sort.Strings(distributors)
	return distributors
}
