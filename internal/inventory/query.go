package inventory

import (
	"strconv"
	"strings"
)

// DefaultPageSize is used when a query asks for a non-positive page size.
const DefaultPageSize = 20

// MaxPageSize caps the page size a caller can request.
const MaxPageSize = 1000

// View is one page of rows matching a search term. It is computed fresh
// for every request and never cached across dataset versions.
type View struct {
	Rows         []Row  `json:"rows"`
	TotalMatched int    `json:"total"`
	Page         int    `json:"page"`
	PageSize     int    `json:"pageSize"`
	TotalPages   int    `json:"totalPages"`
	Term         string `json:"q"`
}

// Query filters rows by a case-insensitive substring match against every
// value (the id included) and returns the requested 1-based page.
//
// An empty term matches every row. A page past the end yields an empty Rows
// slice with TotalMatched unchanged. Page values below 1 are treated as 1,
// non-positive page sizes fall back to DefaultPageSize and larger ones are
// capped at MaxPageSize.
func Query(rows []Row, term string, page, pageSize int) View {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	matched := rows
	if term != "" {
		needle := strings.ToLower(term)
		matched = make([]Row, 0)
		for _, r := range rows {
			if rowContains(r, needle) {
				matched = append(matched, r)
			}
		}
	}

	total := len(matched)
	view := View{
		Rows:         []Row{},
		TotalMatched: total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   (total + pageSize - 1) / pageSize,
		Term:         term,
	}

	// Compare pages rather than offsets so huge page numbers cannot overflow.
	if page > view.TotalPages {
		return view
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	view.Rows = append(view.Rows, matched[start:end]...)
	return view
}

// rowContains reports whether any value of r contains needle, which must
// already be lowercase.
func rowContains(r Row, needle string) bool {
	if strings.Contains(strconv.Itoa(r.ID), needle) {
		return true
	}
	for _, v := range r.values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
