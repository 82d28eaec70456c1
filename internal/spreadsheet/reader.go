package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format identifies the container format of a workbook file.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLS            // BIFF8 inside an OLE2 compound document
	FormatXLSX           // Office Open XML (zip)
)

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte{'P', 'K', 0x03, 0x04}

	// ErrUnknownFormat is returned for files that are neither .xls nor .xlsx.
	ErrUnknownFormat = errors.New("unknown spreadsheet format")
	// ErrNoSheet is returned for workbooks without any sheet.
	ErrNoSheet = errors.New("workbook has no sheets")
)

// DetectFormat sniffs the first bytes of the file. The publisher names every
// report ".xls" regardless of content, so the extension is not trusted.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, len(oleMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return FormatUnknown, nil
		}
		return FormatUnknown, fmt.Errorf("read header: %w", err)
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, oleMagic):
		return FormatXLS, nil
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	default:
		return FormatUnknown, nil
	}
}

// ReadFirstSheet returns every row of the first worksheet as typed cells.
func ReadFirstSheet(path string) ([]Row, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLS:
		return readXLS(path)
	case FormatXLSX:
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

func readXLS(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, ErrNoSheet
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheet
	}

	// WorkSheet.Row panics on rows without any record, so read through
	// ReadAllCells, which only visits stored rows. Missing rows come back nil.
	// A sheet whose last row index is 0 yields nothing; it cannot hold a table.
	raw := wb.ReadAllCells(int(sheet.MaxRow) + 1)

	rows := make([]Row, len(raw))
	for i, values := range raw {
		row := make(Row, len(values))
		for j, v := range values {
			row[j] = Classify(v)
		}
		rows[i] = row
	}
	return rows, nil
}

func readXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", sheet, err)
	}

	rows := make([]Row, len(raw))
	for i, values := range raw {
		row := make(Row, len(values))
		for j, v := range values {
			if v == "" {
				row[j] = Empty()
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, ref)
			if err != nil {
				return nil, fmt.Errorf("cell type of %s: %w", ref, err)
			}
			row[j] = typedCell(v, typ)
		}
		rows[i] = row
	}
	return rows, nil
}

// typedCell keeps string cells as text, even when they look numeric.
func typedCell(v string, typ excelize.CellType) Cell {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return Text(v)
	case excelize.CellTypeError:
		return ErrorValue(v)
	default:
		return Classify(v)
	}
}
