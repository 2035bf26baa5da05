package inventory

import "sort"

// Bucket is a grouped count. JSON names match what chart components consume.
type Bucket struct {
	Label string `json:"name"`
	Count int    `json:"value"`
}

// TimeSeriesPoint counts rows whose purchase date falls in Period ("YYYY-MM").
type TimeSeriesPoint struct {
	Period string `json:"name"`
	Count  int    `json:"value"`
}

// AggregateBy counts rows per canonical value of f, sorted by descending
// count with ties kept in first-seen order. A positive topN truncates the
// result; zero or negative returns every bucket.
//
// Every row lands in exactly one bucket, so counts always sum to len(rows).
func AggregateBy(rows []Row, f SemanticField, topN int) []Bucket {
	counts := make(map[string]int)
	var order []string

	for _, r := range rows {
		label := CanonicalValue(r, f)
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	buckets := make([]Bucket, len(order))
	for i, label := range order {
		buckets[i] = Bucket{Label: label, Count: counts[label]}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})

	if topN > 0 && len(buckets) > topN {
		buckets = buckets[:topN]
	}
	return buckets
}

// TimeSeriesByPurchaseDate groups rows by the year-month of their purchase
// date, ascending. Rows with an absent, blank or unparseable date are left
// out rather than bucketed.
func TimeSeriesByPurchaseDate(rows []Row) []TimeSeriesPoint {
	counts := make(map[string]int)

	for _, r := range rows {
		raw, ok := Resolve(r, FieldPurchaseDate)
		if !ok {
			continue
		}
		t, ok := ParseDate(raw)
		if !ok {
			continue
		}
		counts[PeriodKey(t)]++
	}

	points := make([]TimeSeriesPoint, 0, len(counts))
	for period, n := range counts {
		points = append(points, TimeSeriesPoint{Period: period, Count: n})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})
	return points
}

// DuplicateSerials returns serial numbers shared by more than one row,
// most frequent first. Rows without a serial column or with a blank serial
// are ignored.
func DuplicateSerials(rows []Row) []Bucket {
	counts := make(map[string]int)
	var order []string

	for _, r := range rows {
		serial, ok := Resolve(r, FieldSerial)
		if !ok || isBlank([]string{serial}) {
			continue
		}
		if _, seen := counts[serial]; !seen {
			order = append(order, serial)
		}
		counts[serial]++
	}

	dups := make([]Bucket, 0)
	for _, serial := range order {
		if counts[serial] > 1 {
			dups = append(dups, Bucket{Label: serial, Count: counts[serial]})
		}
	}
	sort.SliceStable(dups, func(i, j int) bool {
		return dups[i].Count > dups[j].Count
	})
	return dups
}
