package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/flowday/internal/localstore"
	"github.com/sadopc/flowday/internal/remote"
)

func sampleScores() []localstore.DayScore {
	now := time.Now().UTC()
	return []localstore.DayScore{
		{Day: "2024-03-01", Score: 85, ArchivedAt: now.Add(-48 * time.Hour)},
		{Day: "2024-03-02", Score: 62, ArchivedAt: now.Add(-24 * time.Hour)},
		{Day: "2024-03-03", Score: 15, ArchivedAt: now},
	}
}

func sampleEntries() []remote.Record {
	return []remote.Record{
		{
			Key:       "flowday_water-glasses_2024-03-01",
			Value:     json.RawMessage(`5`),
			UserID:    "u1",
			UpdatedAt: "2024-03-01T21:00:00Z",
		},
		{
			Key:       "flowday_gratitude_2024-03-01",
			Value:     json.RawMessage(`["slept well, finally","coffee","sun"]`),
			UserID:    "u1",
			UpdatedAt: "2024-03-01T22:00:00Z",
		},
	}
}

// ============================================================
// CSV
// ============================================================

func TestScoresToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")

	if err := ScoresToCSV(sampleScores(), path); err != nil {
		t.Fatalf("ScoresToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	header := records[0]
	expectedHeader := []string{"Day", "Score", "Band", "Archived At"}
	for i, h := range expectedHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "2024-03-01" {
		t.Fatalf("Day = %q", row[0])
	}
	if row[1] != "85" {
		t.Fatalf("Score = %q, want 85", row[1])
	}
	if row[2] != "great" {
		t.Fatalf("Band = %q, want great", row[2])
	}
	if _, err := time.Parse(time.RFC3339, row[3]); err != nil {
		t.Fatalf("Archived At not RFC3339: %q", row[3])
	}

	if records[3][2] != "low" {
		t.Fatalf("Band = %q, want low", records[3][2])
	}
}

func TestScoresToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ScoresToCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r := csv.NewReader(f)
	records, _ := r.ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestScoresToCSVBadPath(t *testing.T) {
	if err := ScoresToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestEntriesToCSVSpecialCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.csv")

	if err := EntriesToCSV(sampleEntries(), path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	// JSON value with quotes and commas must survive the round trip
	if records[2][2] != `["slept well, finally","coffee","sun"]` {
		t.Fatalf("value mangled: %q", records[2][2])
	}
}

// ============================================================
// JSON
// ============================================================

func TestScoresToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")

	if err := ScoresToJSON(sampleScores(), path); err != nil {
		t.Fatalf("ScoresToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result scoreExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 {
		t.Fatalf("count = %d, want 3", result.Count)
	}
	if len(result.Days) != 3 {
		t.Fatalf("days = %d, want 3", len(result.Days))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	d := result.Days[0]
	if d.Day != "2024-03-01" {
		t.Fatalf("day = %q", d.Day)
	}
	if d.Score != 85 {
		t.Fatalf("score = %d, want 85", d.Score)
	}
	if d.Band != "great" {
		t.Fatalf("band = %q, want great", d.Band)
	}
}

func TestScoresToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ScoresToJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result scoreExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Days != nil {
		t.Fatal("days should be nil/null for empty export")
	}
}

func TestScoresToJSONBadPath(t *testing.T) {
	if err := ScoresToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestScoresToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ScoresToJSON(nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestEntriesToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")

	if err := EntriesToJSON(sampleEntries(), path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result entryExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 2 || len(result.Entries) != 2 {
		t.Fatalf("count %d entries %d", result.Count, len(result.Entries))
	}
	if result.Entries[0].Key != "flowday_water-glasses_2024-03-01" {
		t.Fatalf("key = %q", result.Entries[0].Key)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
}

// ============================================================
// scoreBand (internal helper)
// ============================================================

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "low"},
		{39, "low"},
		{40, "fair"},
		{59, "fair"},
		{60, "good"},
		{79, "good"},
		{80, "great"},
		{100, "great"},
	}

	for _, tt := range tests {
		got := scoreBand(tt.score)
		if got != tt.want {
			t.Errorf("scoreBand(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
