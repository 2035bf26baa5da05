package inventory

// parse.go decodes uploaded files into rows.
//
// Both formats funnel into buildRows so header handling is identical:
//   - the first non-blank record is the header
//   - blank records are skipped anywhere in the file
//   - every row carries every header key, short records are padded with ""
//   - header names are trimmed, blank names become column_N, duplicates and
//     the reserved id key get a numeric suffix
//
// Spreadsheets are read from the first sheet only; later sheets are ignored.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// candidateDelimiters are tried in order; ties go to the earlier entry.
var candidateDelimiters = []rune{',', ';', '\t'}

// record is one decoded source line or sheet row.
type record struct {
	line  int
	cells []string
}

// Parse decodes buf in the given format into rows with ids 1..n.
// A file with a header and no data rows yields an empty, non-nil slice.
func Parse(buf []byte, format Format) ([]Row, error) {
	_, rows, err := parse(buf, format)
	return rows, err
}

// parse is Parse that also returns the header, which callers need when a
// file has no data rows.
func parse(buf []byte, format Format) (*Header, []Row, error) {
	var (
		records []record
		err     error
	)

	switch format {
	case FormatDelimited:
		records, err = readDelimited(buf)
	case FormatSpreadsheet:
		records, err = readSpreadsheet(buf)
	default:
		return nil, nil, &UnsupportedFormatError{Ext: string(format)}
	}
	if err != nil {
		return nil, nil, err
	}

	return buildRows(records, format)
}

// readDelimited reads CSV-like text, auto-detecting the delimiter from the
// header line.
func readDelimited(buf []byte) ([]record, error) {
	data := cleanText(buf)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records []record
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			pe := &ParseError{Format: FormatDelimited, Err: err}
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				pe.Line = csvErr.StartLine
				pe.Err = fmt.Errorf("invalid csv: %w", csvErr.Err)
			}
			return nil, pe
		}
		line, _ := r.FieldPos(0)
		records = append(records, record{line: line, cells: cells})
	}

	return records, nil
}

// cleanText strips a UTF-8 BOM and replaces invalid UTF-8 sequences with
// U+FFFD so exports from Windows tools decode cleanly.
func cleanText(buf []byte) []byte {
	buf = bytes.TrimPrefix(buf, utf8BOM)
	return bytes.ToValidUTF8(buf, []byte("\uFFFD"))
}

// detectDelimiter counts candidate delimiters outside quotes on the first
// non-blank line and returns the most frequent one (comma when none appear).
func detectDelimiter(data []byte) rune {
	var line []byte
	for len(data) > 0 {
		var rest []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, rest = data[:i], data[i+1:]
		} else {
			line, rest = data, nil
		}
		if len(bytes.TrimSpace(line)) > 0 {
			break
		}
		line, data = nil, rest
	}

	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, c := range string(line) {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[c]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// readSpreadsheet sniffs the container and reads the first sheet.
func readSpreadsheet(buf []byte) ([]record, error) {
	switch {
	case bytes.HasPrefix(buf, zipMagic):
		return readXLSX(buf)
	case bytes.HasPrefix(buf, oleMagic):
		return readXLS(buf)
	case len(bytes.TrimSpace(buf)) == 0:
		return nil, &ParseError{Format: FormatSpreadsheet, Err: ErrNoHeader}
	default:
		return nil, &ParseError{Format: FormatSpreadsheet, Err: errors.New("invalid spreadsheet: not an xlsx or xls workbook")}
	}
}

// readXLSX reads an Office Open XML workbook.
func readXLSX(buf []byte) ([]record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, &ParseError{Format: FormatSpreadsheet, Err: fmt.Errorf("invalid spreadsheet: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: FormatSpreadsheet, Err: errors.New("invalid spreadsheet: workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: FormatSpreadsheet, Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}

	records := make([]record, len(rows))
	for i, cells := range rows {
		records[i] = record{line: i + 1, cells: cells}
	}
	return records, nil
}

// readXLS reads a legacy BIFF workbook. The decoder panics on some corrupt
// inputs, so panics are turned into a ParseError.
func readXLS(buf []byte) (records []record, err error) {
	defer func() {
		if p := recover(); p != nil {
			records = nil
			err = &ParseError{Format: FormatSpreadsheet, Err: fmt.Errorf("invalid spreadsheet: %v", p)}
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(buf), "utf-8")
	if err != nil {
		return nil, &ParseError{Format: FormatSpreadsheet, Err: fmt.Errorf("invalid spreadsheet: %w", err)}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &ParseError{Format: FormatSpreadsheet, Err: errors.New("invalid spreadsheet: workbook has no sheets")}
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, record{line: i + 1})
			continue
		}
		last := row.LastCol()
		cells := make([]string, max(last, 0))
		for c := row.FirstCol(); c < last; c++ {
			cells[c] = row.Col(c)
		}
		records = append(records, record{line: i + 1, cells: cells})
	}
	return records, nil
}

// buildRows turns decoded records into rows keyed by the header record.
func buildRows(records []record, format Format) (*Header, []Row, error) {
	start := -1
	for i, rec := range records {
		if !isBlank(rec.cells) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil, &ParseError{Format: format, Err: ErrNoHeader}
	}

	header := normalizeHeader(records[start].cells)
	if header.Len() == 0 {
		return nil, nil, &ParseError{Format: format, Line: records[start].line, Err: ErrEmptyHeader}
	}

	rows := make([]Row, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if isBlank(rec.cells) {
			continue
		}
		rows = append(rows, header.Row(len(rows)+1, rec.cells...))
	}
	return header, rows, nil
}

// normalizeHeader trims names, drops trailing blank columns, names interior
// blank columns column_N and suffixes repeats so every key is unique.
func normalizeHeader(cells []string) *Header {
	names := make([]string, len(cells))
	for i, c := range cells {
		names[i] = strings.TrimSpace(c)
	}
	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}

	seen := map[string]int{IDField: 1}
	for i, n := range names {
		if n == "" {
			n = "column_" + strconv.Itoa(i+1)
		}
		base := n
		for seen[n] > 0 {
			seen[base]++
			n = base + "_" + strconv.Itoa(seen[base])
		}
		seen[n] = 1
		names[i] = n
	}
	return NewHeader(names...)
}

// isBlank reports whether every cell is empty or whitespace.
func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
