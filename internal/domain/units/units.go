// Package units converts between raw sheet counts and the "reams + sheets"
// form used on the shop floor.
package units

import (
	"fmt"
	"strings"
)

const DefaultSheetsPerUnit = 500

// Quantity is a sheet count split into whole reams and loose sheets.
type Quantity struct {
	Reams  int64
	Sheets int64
}

// ToSheets does not validate; negative inputs are passed through.
func ToSheets(reams, sheets, perReam int64) int64 {
	return reams*perReam + sheets
}

func normalize(perReam int64) int64 {
	if perReam <= 0 {
		return DefaultSheetsPerUnit
	}
	return perReam
}

// Split uses floor division, so Sheets is always in [0, perReam).
func Split(total, perReam int64) Quantity {
	perReam = normalize(perReam)
	reams := total / perReam
	sheets := total % perReam
	if sheets < 0 {
		reams--
		sheets += perReam
	}
	return Quantity{Reams: reams, Sheets: sheets}
}

func plural(n int64, word string) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// ToDisplay renders e.g. "2 reams, 50 sheets", "1 ream" or "0 sheets".
func ToDisplay(total, perReam int64) string {
	q := Split(total, perReam)
	if q.Reams == 0 {
		return plural(q.Sheets, "sheet")
	}
	if q.Sheets == 0 {
		return plural(q.Reams, "ream")
	}
	return plural(q.Reams, "ream") + ", " + plural(q.Sheets, "sheet")
}

// ToShortDisplay renders e.g. "2R 50S".
func ToShortDisplay(total, perReam int64) string {
	q := Split(total, perReam)
	var b strings.Builder
	if q.Reams != 0 {
		fmt.Fprintf(&b, "%dR", q.Reams)
	}
	if q.Sheets != 0 || q.Reams == 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%dS", q.Sheets)
	}
	return b.String()
}
