package inventory

import (
	"errors"
	"fmt"
)

// ErrConcurrentWrite is returned when a write cannot get the dataset because
// another ingest or delete holds it. Callers should retry.
var ErrConcurrentWrite = errors.New("dataset write already in progress, too many uploads")

// ErrNoHeader is wrapped by ParseError when the input has no non-blank row
// to use as a header.
var ErrNoHeader = errors.New("empty file: no header row")

// ErrEmptyHeader is wrapped by ParseError when the header row has no columns.
var ErrEmptyHeader = errors.New("header row has no columns")

// ParseError reports malformed input. The dataset is left unchanged.
type ParseError struct {
	Format Format
	Line   int // 1-based source line or sheet row, 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports a file whose extension maps to no format.
type UnsupportedFormatError struct {
	FileName string
	Ext      string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported file format: %q has no extension", e.FileName)
	}
	return fmt.Sprintf("unsupported file format %q (accepted: .csv, .txt, .xlsx, .xls)", e.Ext)
}

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsUnsupportedFormat reports whether err wraps an *UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}
