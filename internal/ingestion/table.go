package ingestion

import (
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/spreadsheet"
)

// TotalMarker ends a table block. Any text cell containing it terminates the block.
const TotalMarker = "Итого"

// ExtractTable returns the rows strictly between the first row holding a cell
// equal to name and the first following row with a cell containing TotalMarker.
//
// Blank rows are skipped, as are repeated marker rows, even one that also
// contains TotalMarker. The result is nil when name is never found or nothing
// non-blank follows it.
func ExtractTable(rows []spreadsheet.Row, name string) []spreadsheet.Row {
	var (
		found bool
		table []spreadsheet.Row
	)

	for _, row := range rows {
		if !found {
			found = hasCell(row, name)
			continue
		}
		if row.IsBlank() || hasCell(row, name) {
			continue
		}
		if hasSubstring(row, TotalMarker) {
			break
		}
		table = append(table, row)
	}

	if len(table) == 0 {
		return nil
	}
	return table
}

func hasCell(row spreadsheet.Row, value string) bool {
	for _, c := range row {
		if c.Equals(value) {
			return true
		}
	}
	return false
}

func hasSubstring(row spreadsheet.Row, substr string) bool {
	for _, c := range row {
		if c.Contains(substr) {
			return true
		}
	}
	return false
}

// Predicate decides whether a numeric cell value is kept.
type Predicate func(float64) bool

// Positive keeps values strictly greater than zero.
func Positive(v float64) bool { return v > 0 }

// FilterByColumn keeps the header (first row) and the data rows whose value at
// col parses as a number satisfying pred. A nil pred means Positive.
//
// Rows whose cell is not numeric are dropped. When col is outside the header
// the report layout does not match and the result is nil.
func FilterByColumn(table []spreadsheet.Row, col int, pred Predicate) []spreadsheet.Row {
	if len(table) == 0 {
		return nil
	}
	if pred == nil {
		pred = Positive
	}

	header := table[0]
	if col < 0 || col >= len(header) {
		logger.L().Warn().Int("column", col).Int("header_len", len(header)).Msg("filter column out of range")
		return nil
	}

	out := make([]spreadsheet.Row, 0, len(table))
	out = append(out, header)
	for _, row := range table[1:] {
		if col >= len(row) {
			continue
		}
		v, err := row[col].Float()
		if err != nil {
			continue
		}
		if pred(v) {
			out = append(out, row)
		}
	}
	return out
}
