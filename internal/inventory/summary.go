package inventory

import (
	"strings"
	"time"
)

// Dashboard widget sizes.
const (
	SummaryTopLocations = 10
	SummaryTopUsers     = 7
)

// Summary is the dashboard payload computed from one snapshot.
type Summary struct {
	Version          uint64            `json:"version"`
	UpdatedAt        *time.Time        `json:"updated"`
	FileName         string            `json:"fileName,omitempty"`
	State            State             `json:"state"`
	TotalRows        int               `json:"totalRows"`
	Columns          []string          `json:"columns"`
	DistinctLocation int               `json:"distinctLocations"`
	Locations        []Bucket          `json:"locations"`
	Statuses         []Bucket          `json:"statuses"`
	Users            []Bucket          `json:"users"`
	PurchaseSeries   []TimeSeriesPoint `json:"purchases"`
	DuplicateSerials []Bucket          `json:"duplicateSerials"`
	MissingSerial    int               `json:"missingSerial"`
	MissingLocation  int               `json:"missingLocation"`
}

// Summarize computes every dashboard aggregate from snap in one call so all
// widgets reflect the same version.
func Summarize(snap *Snapshot) Summary {
	rows := snap.Rows()
	locations := AggregateBy(rows, FieldLocation, 0)

	s := Summary{
		State:            snap.State(),
		TotalRows:        len(rows),
		Columns:          snap.Columns(),
		DistinctLocation: len(locations),
		Locations:        locations,
		Statuses:         AggregateBy(rows, FieldStatus, 0),
		Users:            AggregateBy(rows, FieldUser, SummaryTopUsers),
		PurchaseSeries:   TimeSeriesByPurchaseDate(rows),
		DuplicateSerials: DuplicateSerials(rows),
		MissingSerial:    countMissing(rows, FieldSerial),
		MissingLocation:  countMissing(rows, FieldLocation),
	}
	if len(s.Locations) > SummaryTopLocations {
		s.Locations = s.Locations[:SummaryTopLocations]
	}
	if snap != nil {
		s.Version = snap.Version
		s.UpdatedAt = snap.UpdatedAt
		s.FileName = snap.FileName
	}
	if s.Columns == nil {
		s.Columns = []string{}
	}
	return s
}

// countMissing counts rows where f is absent or holds only whitespace.
func countMissing(rows []Row, f SemanticField) int {
	n := 0
	for _, r := range rows {
		if v, ok := Resolve(r, f); !ok || strings.TrimSpace(v) == "" {
			n++
		}
	}
	return n
}
