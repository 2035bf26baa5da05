package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// IDField is the JSON key of the synthetic row id. A header column with the
// same name is renamed during parsing so the key stays unambiguous.
const IDField = "id"

// Format identifies one of the accepted input encodings.
type Format string

const (
	FormatDelimited   Format = "delimited-text"
	FormatSpreadsheet Format = "spreadsheet-binary"
)

// extensionFormats maps lowercase file extensions to their input format.
var extensionFormats = map[string]Format{
	".csv":  FormatDelimited,
	".txt":  FormatDelimited,
	".xlsx": FormatSpreadsheet,
	".xls":  FormatSpreadsheet,
}

// DetectFormat returns the input format for a file name based on its extension.
// Unknown extensions yield an *UnsupportedFormatError.
func DetectFormat(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", &UnsupportedFormatError{FileName: fileName, Ext: ext}
}

// Header is the ordered set of field names shared by every row of a file.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a header from already-unique field names.
func NewHeader(names ...string) *Header {
	h := &Header{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, n := range h.names {
		h.index[n] = i
	}
	return h
}

// Names returns a copy of the field names in file order.
func (h *Header) Names() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.names...)
}

// Len returns the number of columns.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// Row builds a row bound to this header. Missing trailing values become ""
// and values beyond the header width are dropped.
func (h *Header) Row(id int, values ...string) Row {
	vals := make([]string, len(h.names))
	copy(vals, values)
	return Row{ID: id, header: h, values: vals}
}

// Row is one record of a dataset: a synthetic id plus the file's fields in
// header order. Rows are treated as immutable once built.
type Row struct {
	ID     int
	header *Header
	values []string
}

// Get returns the value stored under key and whether the key exists.
func (r Row) Get(key string) (string, bool) {
	if r.header == nil {
		return "", false
	}
	i, ok := r.header.index[key]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Fields returns the field names in header order.
func (r Row) Fields() []string {
	return r.header.Names()
}

// Values returns a copy of the values in header order.
func (r Row) Values() []string {
	return append([]string(nil), r.values...)
}

// Map returns the row as a plain map, including the id.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.values)+1)
	m[IDField] = strconv.Itoa(r.ID)
	if r.header != nil {
		for i, n := range r.header.names {
			m[n] = r.values[i]
		}
	}
	return m
}

// MarshalJSON encodes the row as an object with "id" first followed by the
// fields in header order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"` + IDField + `":`)
	buf.WriteString(strconv.Itoa(r.ID))

	if r.header != nil {
		for i, name := range r.header.names {
			key, err := json.Marshal(name)
			if err != nil {
				return nil, fmt.Errorf("encode field name %q: %w", name, err)
			}
			val, err := json.Marshal(r.values[i])
			if err != nil {
				return nil, fmt.Errorf("encode field %q: %w", name, err)
			}
			buf.WriteByte(',')
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
