package ingestion

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrShortURL is returned when a report link is shorter than the filename suffix.
	ErrShortURL = errors.New("report url shorter than filename suffix")
	// ErrShortFilename is returned when the date offsets fall outside the filename.
	ErrShortFilename = errors.New("filename too short for date offsets")
	// ErrShortProductID is returned when a product id cannot hold oil, basis and type codes.
	ErrShortProductID = errors.New("exchange product id too short")
)

// Span selects runes [From, To) of a string. Negative bounds count from the end,
// so Span{-18, -14} picks the four runes that end 14 runes before the end.
type Span struct {
	From int
	To   int
}

// Of returns the selected substring, or false when the span falls outside s.
func (sp Span) Of(s string) (string, bool) {
	r := []rune(s)
	from, to := sp.From, sp.To
	if from < 0 {
		from += len(r)
	}
	if to < 0 {
		to += len(r)
	}
	if from < 0 || to > len(r) || from > to {
		return "", false
	}
	return string(r[from:to]), true
}

// Layout is the single description of the publisher's report format:
// file naming, the date encoded in the filename and the column positions of
// the trading table. Format drift means editing this value only.
type Layout struct {
	FilenameSuffixLen int    // trailing runes of the report URL kept as filename
	FileExt           string // extension appended to the suffix
	Year              Span
	Month             Span
	Day               Span

	ProductIDColumn   int
	ProductNameColumn int
	BasisNameColumn   int
	VolumeColumn      int
	TotalColumn       int
	CountColumn       int

	OilIDLen   int // leading runes of the product id
	BasisIDLen int // runes following the oil id
}

// DefaultLayout matches reports named like "oil_xls_20240501162000.xls".
var DefaultLayout = Layout{
	FilenameSuffixLen: 22,
	FileExt:           ".xls",
	Year:              Span{From: -18, To: -14},
	Month:             Span{From: -14, To: -12},
	Day:               Span{From: -12, To: -10},

	ProductIDColumn:   1,
	ProductNameColumn: 2,
	BasisNameColumn:   3,
	VolumeColumn:      5,
	TotalColumn:       6,
	CountColumn:       14,

	OilIDLen:   4,
	BasisIDLen: 3,
}

// FilenameFor derives the local filename of a report link.
func (l Layout) FilenameFor(link string) (string, error) {
	suffix, ok := Span{From: -l.FilenameSuffixLen, To: len([]rune(link))}.Of(link)
	if !ok || l.FilenameSuffixLen <= 0 {
		return "", fmt.Errorf("%q: %w", link, ErrShortURL)
	}
	return suffix + l.FileExt, nil
}

// DateFromFilename reads the trading date encoded in the filename.
func (l Layout) DateFromFilename(name string) (time.Time, error) {
	day, okD := l.Day.Of(name)
	month, okM := l.Month.Of(name)
	year, okY := l.Year.Of(name)
	if !okD || !okM || !okY {
		return time.Time{}, fmt.Errorf("%q: %w", name, ErrShortFilename)
	}

	d, err := time.Parse("02.01.2006", day+"."+month+"."+year)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date in filename %q: %w", name, err)
	}
	return d, nil
}

// SplitProductID decomposes an exchange product id into oil, delivery basis
// and delivery type codes.
func (l Layout) SplitProductID(id string) (oil, basis, deliveryType string, err error) {
	r := []rune(id)
	if len(r) < l.OilIDLen+l.BasisIDLen+1 {
		return "", "", "", fmt.Errorf("%q: %w", id, ErrShortProductID)
	}
	oil = string(r[:l.OilIDLen])
	basis = string(r[l.OilIDLen : l.OilIDLen+l.BasisIDLen])
	deliveryType = string(r[len(r)-1:])
	return oil, basis, deliveryType, nil
}
