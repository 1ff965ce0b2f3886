// Package excel renders the stock sheet and reads back stocktake counts.
package excel

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/units"
)

var header = []interface{}{
	"material_id",
	"name",
	"category",
	"sheets_per_unit",
	"stock_sheets",
	"reams",
	"sheets",
	"display",
	"status",
	"counted_reams",
	"counted_sheets",
}

const (
	colID            = 0
	colCountedReams  = 9
	colCountedSheets = 10
)

// ExportStock builds an xlsx with one row per item. The counted columns
// are left blank for the stocktake.
func ExportStock(items []materials.Item) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, it := range items {
		q := units.Split(it.CurrentStock, it.PerUnit())
		row := []interface{}{
			it.ID,
			it.Name,
			it.Category,
			it.PerUnit(),
			it.CurrentStock,
			q.Reams,
			q.Sheets,
			units.ToDisplay(it.CurrentStock, it.PerUnit()),
			string(alerts.CheckStockStatus(it.CurrentStock, it.Threshold).Status),
			"",
			"",
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Count is one counted line of a stocktake file.
type Count struct {
	Row        int
	MaterialID int64
	Reams      int64
	Sheets     int64
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseCount(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseStocktake reads counted reams/sheets from a file produced by
// ExportStock. Rows with both counted cells blank are skipped. Any bad
// row fails the whole file.
func ParseStocktake(data []byte) ([]Count, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Invalid("file", "not a readable .xlsx")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		return nil, errs.Invalid("file", "no material rows")
	}
	if len(rows[0]) < colCountedSheets+1 {
		return nil, errs.Invalid("file", fmt.Sprintf("expected %d columns", len(header)))
	}

	var out []Count
	seen := map[int64]int{}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		idStr := cell(row, colID)
		reamsStr, sheetsStr := cell(row, colCountedReams), cell(row, colCountedSheets)
		if idStr == "" || (reamsStr == "" && sheetsStr == "") {
			continue
		}

		line := i + 1
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return nil, errs.Invalid(fmt.Sprintf("row %d", line), fmt.Sprintf("bad material_id %q", idStr))
		}
		if prev, dup := seen[id]; dup {
			return nil, errs.Invalid(fmt.Sprintf("row %d", line), fmt.Sprintf("material %d already counted on row %d", id, prev))
		}
		seen[id] = line

		reams, ok := parseCount(reamsStr)
		if !ok {
			return nil, errs.Invalid(fmt.Sprintf("row %d", line), fmt.Sprintf("bad counted_reams %q", reamsStr))
		}
		sheets, ok := parseCount(sheetsStr)
		if !ok {
			return nil, errs.Invalid(fmt.Sprintf("row %d", line), fmt.Sprintf("bad counted_sheets %q", sheetsStr))
		}
		out = append(out, Count{Row: line, MaterialID: id, Reams: reams, Sheets: sheets})
	}
	return out, nil
}
