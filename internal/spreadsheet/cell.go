package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
	KindError
)

func (k CellKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Cell is a single spreadsheet value. Only the field matching Kind is meaningful:
// Text for KindText and KindError (the error literal, e.g. "#N/A"), Number for KindNumber.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Row is one sheet row; rows may have different lengths.
type Row []Cell

// errorLiterals are the values spreadsheet applications render for formula errors.
var errorLiterals = map[string]struct{}{
	"#NULL!":  {},
	"#DIV/0!": {},
	"#VALUE!": {},
	"#REF!":   {},
	"#NAME?":  {},
	"#NUM!":   {},
	"#N/A":    {},
}

func Empty() Cell                 { return Cell{Kind: KindEmpty} }
func Text(s string) Cell          { return Cell{Kind: KindText, Text: s} }
func Number(v float64) Cell       { return Cell{Kind: KindNumber, Number: v} }
func ErrorValue(code string) Cell { return Cell{Kind: KindError, Text: code} }

// Classify turns the rendered string of a cell into a typed Cell.
// The .xls reader only exposes strings and uses it to recover numbers and
// error values; a numeric-looking text cell becomes a number there.
func Classify(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		if raw == "" {
			return Empty()
		}
		return Text(raw)
	}
	if _, ok := errorLiterals[s]; ok {
		return ErrorValue(s)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(v)
	}
	return Text(raw)
}

// String renders the cell the way it is stored in text columns.
// Numbers use the shortest exact decimal representation ("60", "1234.5").
func (c Cell) String() string {
	switch c.Kind {
	case KindText, KindError:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Float converts the cell to a number. Blank cells (empty or whitespace-only text) are 0.
func (c Cell) Float() (float64, error) {
	switch c.Kind {
	case KindEmpty:
		return 0, nil
	case KindNumber:
		return c.Number, nil
	case KindText:
		s := strings.TrimSpace(c.Text)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cell %q is not numeric: %w", c.Text, err)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("cell holds error value %s", c.Text)
	}
}

// Truthy reports whether the cell carries a value: non-empty text, a non-zero number or an error.
func (c Cell) Truthy() bool {
	switch c.Kind {
	case KindText:
		return c.Text != ""
	case KindNumber:
		return c.Number != 0
	case KindError:
		return true
	default:
		return false
	}
}

// Contains reports whether the cell is text containing substr (case-sensitive).
func (c Cell) Contains(substr string) bool {
	return c.Kind == KindText && strings.Contains(c.Text, substr)
}

// Equals reports whether the cell is text exactly equal to s.
func (c Cell) Equals(s string) bool {
	return c.Kind == KindText && c.Text == s
}

// IsBlank reports whether every cell in the row is falsy.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if c.Truthy() {
			return false
		}
	}
	return true
}

// At returns the cell at index i, or an empty cell when the row is shorter.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Empty()
	}
	return r[i]
}

// TextRow builds a row of classified cells; handy for fixtures.
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Classify(v)
	}
	return row
}
