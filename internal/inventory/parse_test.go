package inventory

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    Format
		wantErr bool
	}{
		{name: "csv", file: "inventory.csv", want: FormatDelimited},
		{name: "txt", file: "export.TXT", want: FormatDelimited},
		{name: "xlsx", file: "Book1.xlsx", want: FormatSpreadsheet},
		{name: "xls", file: "legacy.XLS", want: FormatSpreadsheet},
		{name: "pdf rejected", file: "report.pdf", wantErr: true},
		{name: "no extension", file: "README", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file)
			if tt.wantErr {
				if !IsUnsupportedFormat(err) {
					t.Fatalf("DetectFormat(%q) error = %v, want UnsupportedFormatError", tt.file, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat(%q) unexpected error: %v", tt.file, err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestParse_Delimited(t *testing.T) {
	rows, err := Parse([]byte("a,b\n1,2\n"), FormatDelimited)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ID != 1 {
		t.Errorf("ID = %d, want 1", rows[0].ID)
	}
	want := map[string]string{"id": "1", "a": "1", "b": "2"}
	if got := rows[0].Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}

func TestParse_DelimitedShapes(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFields []string
		wantValues [][]string
	}{
		{
			name:       "blank lines skipped",
			input:      "\n\na,b\n\n1,2\n   \n3,4\n",
			wantFields: []string{"a", "b"},
			wantValues: [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:       "byte order mark stripped",
			input:      "\xEF\xBB\xBFlocation,status\nHQ,Active\n",
			wantFields: []string{"location", "status"},
			wantValues: [][]string{{"HQ", "Active"}},
		},
		{
			name:       "semicolon delimiter",
			input:      "a;b;c\n1;2;3\n",
			wantFields: []string{"a", "b", "c"},
			wantValues: [][]string{{"1", "2", "3"}},
		},
		{
			name:       "tab delimiter",
			input:      "a\tb\nx,y\tz\n",
			wantFields: []string{"a", "b"},
			wantValues: [][]string{{"x,y", "z"}},
		},
		{
			name:       "short rows padded, long rows truncated",
			input:      "a,b,c\n1\n1,2,3,4\n",
			wantFields: []string{"a", "b", "c"},
			wantValues: [][]string{{"1", "", ""}, {"1", "2", "3"}},
		},
		{
			name:       "quoted commas preserved",
			input:      "name,notes\n\"Laptop, 14in\",ok\n",
			wantFields: []string{"name", "notes"},
			wantValues: [][]string{{"Laptop, 14in", "ok"}},
		},
		{
			name:       "header names trimmed",
			input:      "  Location , Status \nHQ,Active\n",
			wantFields: []string{"Location", "Status"},
			wantValues: [][]string{{"HQ", "Active"}},
		},
		{
			name:       "duplicate and blank header names",
			input:      "a,a,,id\n1,2,3,4\n",
			wantFields: []string{"a", "a_2", "column_3", "id_2"},
			wantValues: [][]string{{"1", "2", "3", "4"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Parse([]byte(tt.input), FormatDelimited)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(rows) != len(tt.wantValues) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.wantValues))
			}
			for i, r := range rows {
				if r.ID != i+1 {
					t.Errorf("row %d ID = %d, want %d", i, r.ID, i+1)
				}
				if got := r.Fields(); !reflect.DeepEqual(got, tt.wantFields) {
					t.Errorf("row %d Fields() = %v, want %v", i, got, tt.wantFields)
				}
				if got := r.Values(); !reflect.DeepEqual(got, tt.wantValues[i]) {
					t.Errorf("row %d Values() = %v, want %v", i, got, tt.wantValues[i])
				}
			}
		})
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	header, rows, err := parse([]byte("location,status\n"), FormatDelimited)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %v, want empty non-nil slice", rows)
	}
	if got := header.Names(); !reflect.DeepEqual(got, []string{"location", "status"}) {
		t.Errorf("header = %v", got)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	inputs := map[string]string{
		"empty":       "",
		"whitespace":  "  \n\n\t\n",
		"only commas": ",,,\n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input), FormatDelimited)
			if !IsParseError(err) {
				t.Fatalf("Parse(%q) error = %v, want ParseError", input, err)
			}
			if !errors.Is(err, ErrNoHeader) {
				t.Errorf("Parse(%q) error = %v, want ErrNoHeader", input, err)
			}
		})
	}
}

func TestParse_InvalidUTF8Replaced(t *testing.T) {
	rows, err := Parse([]byte("name\nbad\xffbyte\n"), FormatDelimited)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got, _ := rows[0].Get("name")
	if got != "bad\uFFFDbyte" {
		t.Errorf("value = %q, want replacement character", got)
	}
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte("a\n1\n"), Format("pdf"))
	if !IsUnsupportedFormat(err) {
		t.Errorf("error = %v, want UnsupportedFormatError", err)
	}
}

func TestParse_SpreadsheetXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells := [][]any{
		{"Location", "Status", "purchase_date"},
		{"HQ", "Active", "2024-01-15"},
		{"Branch"},
	}
	for i, row := range cells {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	// A second sheet must be ignored.
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := f.SetCellValue("Other", "A1", "ignored"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := Parse(buf.Bytes(), FormatSpreadsheet)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if got := CanonicalValue(rows[0], FieldLocation); got != "HQ" {
		t.Errorf("row 1 location = %q, want HQ", got)
	}
	if got, _ := rows[1].Get("Status"); got != "" {
		t.Errorf("row 2 missing cell = %q, want empty", got)
	}
	if got := rows[1].Fields(); !reflect.DeepEqual(got, []string{"Location", "Status", "purchase_date"}) {
		t.Errorf("row 2 fields = %v", got)
	}
}

func TestParse_SpreadsheetDateTimeCell(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Serial", "purchase_date"}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SetCellValue(sheet, "A2", "SN-1"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	purchased := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	if err := f.SetCellValue(sheet, "B2", purchased); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := f.SetCellStyle(sheet, "B2", "B2", style); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := Parse(buf.Bytes(), FormatSpreadsheet)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	got := TimeSeriesByPurchaseDate(rows)
	want := []TimeSeriesPoint{{Period: "2024-03", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		raw, _ := rows[0].Get("purchase_date")
		t.Errorf("series = %v, want %v (cell rendered as %q)", got, want, raw)
	}
}

func TestParse_SpreadsheetGarbage(t *testing.T) {
	tests := map[string][]byte{
		"plain text":    []byte("location,status\nHQ,Active\n"),
		"truncated zip": append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0}, 16)...),
		"ole garbage":   append([]byte("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1"), bytes.Repeat([]byte{0xff}, 504)...),
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input, FormatSpreadsheet)
			if !IsParseError(err) {
				t.Errorf("error = %v, want ParseError", err)
			}
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		input string
		want  rune
	}{
		{"a,b,c\n", ','},
		{"a;b;c\n", ';'},
		{"a\tb\tc\n", '\t'},
		{"\"x;y\",b\n", ','},
		{"single\n", ','},
	}

	for _, tt := range tests {
		if got := detectDelimiter([]byte(tt.input)); got != tt.want {
			t.Errorf("detectDelimiter(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
