package inventory

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	s := NewStore()
	h := NewHeader("Location", "status", "user", "purchase_date", "serial")

	var rows []Row
	for i := 0; i < 15; i++ {
		rows = append(rows, h.Row(i+1,
			fmt.Sprintf("Site %02d", i%12),
			"Active",
			fmt.Sprintf("user%d", i%9),
			"2024-02-10",
			fmt.Sprintf("SN-%d", i%14),
		))
	}
	snap := s.replace(h, rows, "assets.xlsx", FormatSpreadsheet, "ing", time.Now())

	sum := Summarize(snap)

	if sum.TotalRows != 15 || sum.Version != 1 || sum.State != StateReady {
		t.Errorf("header fields = %+v", sum)
	}
	if sum.DistinctLocation != 12 {
		t.Errorf("DistinctLocation = %d, want 12", sum.DistinctLocation)
	}
	if len(sum.Locations) != SummaryTopLocations {
		t.Errorf("len(Locations) = %d, want %d", len(sum.Locations), SummaryTopLocations)
	}
	if len(sum.Users) != SummaryTopUsers {
		t.Errorf("len(Users) = %d, want %d", len(sum.Users), SummaryTopUsers)
	}
	if len(sum.Statuses) != 1 || sum.Statuses[0].Count != 15 {
		t.Errorf("Statuses = %v", sum.Statuses)
	}
	if len(sum.PurchaseSeries) != 1 || sum.PurchaseSeries[0].Period != "2024-02" {
		t.Errorf("PurchaseSeries = %v", sum.PurchaseSeries)
	}
	if len(sum.DuplicateSerials) != 1 || sum.DuplicateSerials[0].Label != "SN-0" {
		t.Errorf("DuplicateSerials = %v", sum.DuplicateSerials)
	}
	if sum.MissingSerial != 0 || sum.MissingLocation != 0 {
		t.Errorf("missing counts = %d serial, %d location, want 0, 0", sum.MissingSerial, sum.MissingLocation)
	}

	// Blank values and absent columns both count as missing.
	h = NewHeader("serial", "notes")
	snap = s.replace(h, []Row{
		h.Row(1, "SN-1", ""),
		h.Row(2, "", "returned"),
		h.Row(3, "   ", ""),
	}, "partial.csv", FormatDelimited, "ing-2", time.Now())

	sum = Summarize(snap)
	if sum.MissingSerial != 2 {
		t.Errorf("MissingSerial = %d, want 2", sum.MissingSerial)
	}
	if sum.MissingLocation != 3 {
		t.Errorf("MissingLocation = %d, want 3", sum.MissingLocation)
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(NewStore().Current())

	if sum.TotalRows != 0 || sum.State != StateIdle || sum.UpdatedAt != nil {
		t.Errorf("empty summary = %+v", sum)
	}
	if sum.Columns == nil || sum.DuplicateSerials == nil {
		t.Error("empty summary has nil slices")
	}
}

func TestWriteCSV(t *testing.T) {
	s := NewStore()
	h := NewHeader("name", "notes")
	snap := s.replace(h, []Row{
		h.Row(1, "Laptop", "has, comma"),
		h.Row(2, "Phone", ""),
	}, "stock.xlsx", FormatSpreadsheet, "ing", time.Now())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "name,notes\nLaptop,\"has, comma\"\nPhone,\n"
	if buf.String() != want {
		t.Errorf("WriteCSV =\n%q\nwant\n%q", buf.String(), want)
	}

	// The export parses back to the same rows.
	rows, err := Parse(buf.Bytes(), FormatDelimited)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(rows) != 2 || rows[0].Map()["notes"] != "has, comma" {
		t.Errorf("re-parsed rows = %v", rows)
	}

	if got := ExportFileName(snap); got != "stock.csv" {
		t.Errorf("ExportFileName = %q, want stock.csv", got)
	}
}

func TestWriteCSV_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, NewStore().Current()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q for an empty dataset", buf.String())
	}
	if got := ExportFileName(nil); got != "inventory.csv" {
		t.Errorf("ExportFileName(nil) = %q", got)
	}
}
