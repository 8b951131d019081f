package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ryzom/shardstatus/internal/shard"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite storage: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

func TestStorage_SaveAndGetHistory(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

			for i, state := range []shard.State{shard.StateOpen, shard.StateLocked, shard.StateClosed} {
				if err := store.Save("Arispotle", state, base.Add(time.Duration(i)*time.Minute)); err != nil {
					t.Fatalf("Save failed: %v", err)
				}
			}
			if err := store.Save("Leanon", shard.StateOpen, base); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			history, err := store.GetHistory("Arispotle", base, base.Add(time.Minute))
			if err != nil {
				t.Fatalf("GetHistory failed: %v", err)
			}

			if history.Server != "Arispotle" {
				t.Errorf("expected server Arispotle, got %q", history.Server)
			}
			if len(history.Points) != 2 {
				t.Fatalf("expected 2 points, got %d", len(history.Points))
			}
			if history.Points[0].State != shard.StateOpen || history.Points[1].State != shard.StateLocked {
				t.Errorf("unexpected states: %+v", history.Points)
			}
			if !history.Points[0].Timestamp.Equal(base) {
				t.Errorf("expected first timestamp %v, got %v", base, history.Points[0].Timestamp)
			}
		})
	}
}

func TestStorage_GetLatest(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			states := []shard.State{shard.StateOpen, shard.StateLocked, shard.StateClosed, shard.StateOpen}
			for i, state := range states {
				store.Save("Aniro", state, base.Add(time.Duration(i)*time.Second))
			}

			history, err := store.GetLatest("Aniro", 2)
			if err != nil {
				t.Fatalf("GetLatest failed: %v", err)
			}
			if len(history.Points) != 2 {
				t.Fatalf("expected 2 points, got %d", len(history.Points))
			}
			if history.Points[0].State != shard.StateClosed || history.Points[1].State != shard.StateOpen {
				t.Errorf("unexpected latest points: %+v", history.Points)
			}

			all, err := store.GetLatest("Aniro", 100)
			if err != nil {
				t.Fatalf("GetLatest failed: %v", err)
			}
			if len(all.Points) != len(states) {
				t.Errorf("expected %d points, got %d", len(states), len(all.Points))
			}

			none, err := store.GetLatest("Unknown", 10)
			if err != nil {
				t.Fatalf("GetLatest failed: %v", err)
			}
			if len(none.Points) != 0 {
				t.Errorf("expected no points, got %d", len(none.Points))
			}
		})
	}
}

func TestStorage_Cleanup(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			store.Save("Leanon", shard.StateOpen, now.Add(-2*time.Hour))
			store.Save("Leanon", shard.StateLocked, now)

			if err := store.Cleanup(now.Add(-time.Hour)); err != nil {
				t.Fatalf("Cleanup failed: %v", err)
			}

			history, err := store.GetLatest("Leanon", 10)
			if err != nil {
				t.Fatalf("GetLatest failed: %v", err)
			}
			if len(history.Points) != 1 || history.Points[0].State != shard.StateLocked {
				t.Errorf("expected only the recent point, got %+v", history.Points)
			}
		})
	}
}

func TestStorage_Observations(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			report := shard.Report{
				{Name: "Aniro", State: shard.StateOpen},
				{Name: "Leanon", State: shard.StateLocked},
				shard.Sentinel(),
				shard.Sentinel(),
			}
			if err := SaveReport(store, report, base); err != nil {
				t.Fatalf("SaveReport failed: %v", err)
			}
			store.Save("Aniro", shard.StateClosed, base.Add(time.Minute))

			rows, err := store.Observations("", base, base.Add(time.Hour))
			if err != nil {
				t.Fatalf("Observations failed: %v", err)
			}
			if len(rows) != 3 {
				t.Fatalf("expected 3 rows (sentinels are not stored), got %d", len(rows))
			}
			if rows[0].Server != "Aniro" || rows[1].Server != "Leanon" || rows[2].State != shard.StateClosed {
				t.Errorf("unexpected order: %+v", rows)
			}

			filtered, err := store.Observations("Leanon", base, base.Add(time.Hour))
			if err != nil {
				t.Fatalf("Observations failed: %v", err)
			}
			if len(filtered) != 1 || filtered[0].State != shard.StateLocked {
				t.Errorf("unexpected filtered rows: %+v", filtered)
			}
		})
	}
}

func TestExportCSV(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []Observation{
		{Timestamp: ts, Server: "ATS", State: shard.StateOpen},
		{Timestamp: ts, Server: "Leanon", State: shard.StateClosed},
	}

	var buf bytes.Buffer
	if err := ExportCSV(&buf, rows); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][1] != "server" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][0] != "2024-03-01T12:00:00Z" || records[1][1] != "ATS" || records[1][2] != "open" {
		t.Errorf("unexpected row: %v", records[1])
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, nil); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var doc struct {
		Count        int           `json:"count"`
		Observations []Observation `json:"observations"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse json: %v", err)
	}
	if doc.Count != 0 || doc.Observations == nil {
		t.Errorf("expected empty observations array, got %+v", doc)
	}
}
