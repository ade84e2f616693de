package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/flowday/internal/localstore"
	"github.com/sadopc/flowday/internal/remote"
)

type scoreExport struct {
	ExportedAt string    `json:"exported_at"`
	Count      int       `json:"count"`
	Days       []jsonDay `json:"days"`
}

type jsonDay struct {
	Day        string `json:"day"`
	Score      int    `json:"score"`
	Band       string `json:"band"`
	ArchivedAt string `json:"archived_at"`
}

// ScoresToJSON writes the archived day-score history to path.
func ScoresToJSON(scores []localstore.DayScore, path string) error {
	export := scoreExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(scores),
	}

	for _, s := range scores {
		export.Days = append(export.Days, jsonDay{
			Day:        s.Day,
			Score:      s.Score,
			Band:       scoreBand(s.Score),
			ArchivedAt: s.ArchivedAt.Local().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

type entryExport struct {
	ExportedAt string          `json:"exported_at"`
	Count      int             `json:"count"`
	Entries    []remote.Record `json:"entries"`
}

// EntriesToJSON writes raw synced state rows (admin data view) to path.
func EntriesToJSON(entries []remote.Record, path string) error {
	export := entryExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    entries,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
