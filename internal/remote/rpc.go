package remote

import (
	"context"
	"net/http"
)

// ArchiveAndResetDay asks the backend to freeze targetDate's summary and
// clear that day's working data. Idempotent by date server-side.
func (c *Client) ArchiveAndResetDay(ctx context.Context, targetDate string) error {
	if c == nil {
		return nil
	}
	body := map[string]string{"target_date": targetDate}
	return c.Rest(ctx, http.MethodPost, "rpc/archive_and_reset_day", nil, nil, body, nil)
}

// CalculateDailyScore computes and persists the aggregate score (0-100) for
// targetDate, returning it.
func (c *Client) CalculateDailyScore(ctx context.Context, targetDate string) (int, error) {
	if c == nil {
		return 0, nil
	}
	body := map[string]string{"target_date": targetDate}
	var score int
	if err := c.Rest(ctx, http.MethodPost, "rpc/calculate_daily_score", nil, nil, body, &score); err != nil {
		return 0, err
	}
	return score, nil
}
