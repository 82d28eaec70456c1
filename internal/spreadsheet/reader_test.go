package spreadsheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	// SaveAs rejects the .xls extension, so write the buffer directly
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()

	xlsx := filepath.Join(dir, "report.xls") // OOXML content behind a .xls name
	writeWorkbook(t, xlsx, [][]interface{}{{"a"}})

	ole := filepath.Join(dir, "legacy.xls")
	if err := os.WriteFile(ole, append(append([]byte{}, oleMagic...), 0, 0, 0), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	html := filepath.Join(dir, "page.xls")
	if err := os.WriteFile(html, []byte("<html></html>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	empty := filepath.Join(dir, "empty.xls")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cases := []struct {
		path string
		want Format
	}{
		{xlsx, FormatXLSX},
		{ole, FormatXLS},
		{html, FormatUnknown},
		{empty, FormatUnknown},
	}
	for _, c := range cases {
		got, err := DetectFormat(c.path)
		if err != nil {
			t.Fatalf("DetectFormat(%s): %v", c.path, err)
		}
		if got != c.want {
			t.Fatalf("DetectFormat(%s)=%v, want %v", filepath.Base(c.path), got, c.want)
		}
	}

	if _, err := DetectFormat(filepath.Join(dir, "missing.xls")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestReadFirstSheet_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oil_xls_20240501162000.xls")
	writeWorkbook(t, path, [][]interface{}{
		{"Единица измерения: Метрическая тонна"},
		{"Код", "Код Инструмента", "Наименование"},
		{nil, "A100B23Z", "Бензин", 60, 1234.5},
		{"0", "007", 0},
	})

	rows, err := ReadFirstSheet(path)
	if err != nil {
		t.Fatalf("ReadFirstSheet: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows=%d, want 4", len(rows))
	}
	if !rows[0].At(0).Equals("Единица измерения: Метрическая тонна") {
		t.Fatalf("marker cell=%+v", rows[0].At(0))
	}
	data := rows[2]
	if data.At(0).Kind != KindEmpty {
		t.Fatalf("leading nil cell kind=%v", data.At(0).Kind)
	}
	if data.At(1).String() != "A100B23Z" {
		t.Fatalf("product id=%q", data.At(1).String())
	}
	if data.At(3).Kind != KindNumber || data.At(3).Number != 60 {
		t.Fatalf("volume cell=%+v", data.At(3))
	}
	if data.At(4).String() != "1234.5" {
		t.Fatalf("total cell=%q", data.At(4).String())
	}

	// numeric-looking strings stay text
	texts := rows[3]
	if texts.At(0).Kind != KindText || texts.IsBlank() {
		t.Fatalf("text zero=%+v, row blank=%v", texts.At(0), texts.IsBlank())
	}
	if texts.At(1).Kind != KindText || texts.At(1).String() != "007" {
		t.Fatalf("leading zeros lost: %+v", texts.At(1))
	}
	if texts.At(2).Kind != KindNumber || texts.At(2).Number != 0 {
		t.Fatalf("numeric zero=%+v", texts.At(2))
	}
}

// testdata/report.xls is a BIFF8 workbook with two sheets. On the first one
// row 1 holds no record and row 3 has cells but no ROW record.
func TestReadFirstSheet_XLS(t *testing.T) {
	path := filepath.Join("testdata", "report.xls")

	format, err := DetectFormat(path)
	if err != nil {
		t.Fatalf("DetectFormat: %v", err)
	}
	if format != FormatXLS {
		t.Fatalf("format=%v, want FormatXLS", format)
	}

	rows, err := ReadFirstSheet(path)
	if err != nil {
		t.Fatalf("ReadFirstSheet: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows=%d, want 5", len(rows))
	}

	if !rows[0].At(0).Equals("Единица измерения: Метрическая тонна") {
		t.Fatalf("marker cell=%+v", rows[0].At(0))
	}
	if len(rows[1]) != 0 || !rows[1].IsBlank() {
		t.Fatalf("missing row=%+v, want empty", rows[1])
	}

	header := rows[2]
	if len(header) != 3 || header.At(0).Kind != KindEmpty || !header.At(1).Equals("Код Инструмента") || !header.At(2).Equals("Наименование") {
		t.Fatalf("header=%+v", header)
	}

	data := rows[3]
	if len(data) != 5 {
		t.Fatalf("data row len=%d, want 5: %+v", len(data), data)
	}
	cases := []struct {
		col  int
		kind CellKind
		text string
	}{
		{0, KindEmpty, ""},
		{1, KindText, "A100B23Z"},
		{2, KindNumber, "60"},
		{3, KindNumber, "1234.5"},
		{4, KindText, "-"},
	}
	for _, c := range cases {
		cell := data.At(c.col)
		if cell.Kind != c.kind || cell.String() != c.text {
			t.Fatalf("col %d=%+v, want %v %q", c.col, cell, c.kind, c.text)
		}
	}

	if !rows[4].At(0).Contains("Итого") {
		t.Fatalf("total row=%+v", rows[4])
	}
}

func TestReadFirstSheet_UnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xls")
	if err := os.WriteFile(path, []byte("not a workbook"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadFirstSheet(path); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
