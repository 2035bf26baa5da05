package audit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_RecordFillsDefaults(t *testing.T) {
	m := NewMemoryStore(10)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return now }

	got, err := m.Record(context.Background(), Entry{Action: ActionDelete})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if got.ID == "" {
		t.Error("ID not assigned")
	}
	if got.Severity != SeverityCritical {
		t.Errorf("Severity = %q, want critical", got.Severity)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	m := NewMemoryStore(10)
	ctx := context.Background()

	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		if _, err := m.Record(ctx, Entry{Action: ActionIngest, FileName: name}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := m.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].FileName != "c.csv" || entries[1].FileName != "b.csv" {
		t.Errorf("order = %s, %s", entries[0].FileName, entries[1].FileName)
	}

	all, _ := m.List(ctx, 0)
	if len(all) != 3 {
		t.Errorf("List(0) returned %d, want 3", len(all))
	}
}

func TestMemoryStore_DropsOldestWhenFull(t *testing.T) {
	m := NewMemoryStore(2)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		m.Record(ctx, Entry{Action: ActionIngest, FileName: name})
	}

	entries, _ := m.List(ctx, 10)
	if len(entries) != 2 || entries[0].FileName != "c" || entries[1].FileName != "b" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestMemoryStore_Prune(t *testing.T) {
	m := NewMemoryStore(10)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		m.Record(ctx, Entry{Action: ActionIngest, CreatedAt: base.AddDate(0, 0, i)})
	}

	removed, err := m.Prune(ctx, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	entries, _ := m.List(ctx, 10)
	if len(entries) != 2 {
		t.Errorf("remaining = %d, want 2", len(entries))
	}
}

func TestSeverityFor(t *testing.T) {
	tests := map[Action]Severity{
		ActionIngest:       SeverityHigh,
		ActionDelete:       SeverityCritical,
		ActionIngestFailed: SeverityLow,
		Action("other"):    SeverityMedium,
	}
	for action, want := range tests {
		if got := SeverityFor(action); got != want {
			t.Errorf("SeverityFor(%q) = %q, want %q", action, got, want)
		}
	}
}

func TestClientContext(t *testing.T) {
	ip, ua := ClientFromContext(context.Background())
	if ip != "" || ua != "" {
		t.Errorf("empty context returned %q %q", ip, ua)
	}

	ctx := ContextWithClient(context.Background(), "192.0.2.1", "Mozilla/5.0")
	ip, ua = ClientFromContext(ctx)
	if ip != "192.0.2.1" || ua != "Mozilla/5.0" {
		t.Errorf("got %q %q", ip, ua)
	}
}
