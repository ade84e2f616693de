package localstore

import (
	"fmt"
	"time"
)

// DayScore is a frozen snapshot of one archived day's aggregate score.
// Rows are written once by the rollover path and read by the history chart.
type DayScore struct {
	Day        string // YYYY-MM-DD
	Score      int    // 0-100
	ArchivedAt time.Time
}

// PutDayScore records (or refreshes) the archived score for a day.
func (s *Store) PutDayScore(day string, score int) error {
	_, err := s.db.Exec(
		`INSERT INTO day_scores (day, score, archived_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		 ON CONFLICT(day) DO UPDATE SET score = excluded.score, archived_at = excluded.archived_at`,
		day, score,
	)
	return err
}

// GetDayScore returns the archived score for one day.
func (s *Store) GetDayScore(day string) (*DayScore, error) {
	ds := &DayScore{}
	var archivedAt string
	err := s.db.QueryRow(
		`SELECT day, score, archived_at FROM day_scores WHERE day = ?`, day,
	).Scan(&ds.Day, &ds.Score, &archivedAt)
	if err != nil {
		return nil, fmt.Errorf("get day score %q: %w", day, err)
	}
	ds.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
	return ds, nil
}

// ListDayScores returns archived scores for days in [from, to), ascending.
func (s *Store) ListDayScores(from, to string) ([]DayScore, error) {
	rows, err := s.db.Query(
		`SELECT day, score, archived_at FROM day_scores WHERE day >= ? AND day < ? ORDER BY day`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list day scores: %w", err)
	}
	defer rows.Close()

	var scores []DayScore
	for rows.Next() {
		var ds DayScore
		var archivedAt string
		if err := rows.Scan(&ds.Day, &ds.Score, &archivedAt); err != nil {
			return nil, err
		}
		ds.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
		scores = append(scores, ds)
	}
	return scores, rows.Err()
}
