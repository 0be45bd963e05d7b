package agenda

import "strings"

// Grid is the raw cell matrix handed over by whatever parsed the spreadsheet
// file. Rows may be jagged; cells are plain strings exactly as exported.
type Grid [][]string

// Row pairs the original cells with two derived joins: Raw keeps the source
// casing for value extraction, Flat is uppercased for label matching.
// Positional extraction (times, names) always reads the original cells.
type Row struct {
	Cells []string
	Raw   string
	Flat  string
}

// NormalizeGrid derives the scan rows for a grid. Purely derived, never
// mutates the input, safe to recompute.
func NormalizeGrid(grid Grid) []Row {
	rows := make([]Row, len(grid))
	for i, cells := range grid {
		copied := make([]string, len(cells))
		copy(copied, cells)
		raw := strings.Join(copied, " ")
		rows[i] = Row{
			Cells: copied,
			Raw:   raw,
			Flat:  strings.ToUpper(raw),
		}
	}
	return rows
}
