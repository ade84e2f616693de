package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/flowday/internal/localstore"
	"github.com/sadopc/flowday/internal/remote"
)

// ScoresToCSV writes the archived day-score history to path.
func ScoresToCSV(scores []localstore.DayScore, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Day", "Score", "Band", "Archived At"}); err != nil {
		return err
	}

	for _, s := range scores {
		row := []string{
			s.Day,
			fmt.Sprintf("%d", s.Score),
			scoreBand(s.Score),
			s.ArchivedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// EntriesToCSV writes raw synced state rows (admin data view) to path.
func EntriesToCSV(entries []remote.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Key", "User", "Value", "Updated At"}); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.Key,
			e.UserID,
			string(e.Value),
			e.UpdatedAt,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func scoreBand(score int) string {
	switch {
	case score >= 80:
		return "great"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "low"
	}
}
