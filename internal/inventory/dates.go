package inventory

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are
// assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Spreadsheet serial day numbers outside this range are not treated as dates,
// which keeps small counts and ids out of the time series.
const (
	minSerialDate = 10000   // 1927-05-18
	maxSerialDate = 2958465 // 9999-12-31
)

// Date layouts split by year format for proper 2-digit year handling.
// US month-first layouts are tried before day-first ones.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "01-02-06", "1.2.06", "01.02.06",
		"2/1/06", "02/01/06",
		// Date-time cells (built-in number format 22) render as m/d/yy h:mm.
		"1/2/06 15:04", "1/2/06 15:04:05", "1/2/06 3:04 PM",
		"2-Jan-06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339, time.RFC3339Nano,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"2006-01-02", "2006/01/02", "2006.01.02", "2006-1-2", "2006/1/2",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006",
		"1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006 3:04 PM",
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "2 Jan 2006", "2 January 2006",
		"02-Jan-2006",
		"2006-01",
		"20060102",
	}
)

// ParseDate applies the string/date heuristics used by the purchase-date
// series. Blank input and values matching no layout report false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return parseSerialDate(s)
}

// parseSerialDate handles spreadsheet cells that carry an unformatted date
// serial (days since 1899-12-30). Only plain decimals are serials; ParseFloat
// alone would also take "nan", hex floats and underscore digit groups.
func parseSerialDate(s string) (time.Time, bool) {
	if !isPlainDecimal(s) {
		return time.Time{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < minSerialDate || f > maxSerialDate {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// isPlainDecimal reports whether s is digits with at most one fractional part.
func isPlainDecimal(s string) bool {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}
	return !hasFrac || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// PeriodKey formats t as a zero-padded "YYYY-MM" bucket key.
func PeriodKey(t time.Time) string {
	return t.Format("2006-01")
}
