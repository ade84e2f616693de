package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// Record is one row of the cloud app_state table: at most one record exists
// per storage key.
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UserID    string          `json:"user_id"`
	UpdatedAt string          `json:"updated_at"`
}

// FetchValue reads the cloud value stored under key for a user. Absent and
// error both leave the local value standing; the error is for diagnostics
// only.
func (c *Client) FetchValue(ctx context.Context, key, userID string) (json.RawMessage, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	q := url.Values{}
	q.Set("select", "value")
	q.Set("key", "eq."+key)
	q.Set("user_id", "eq."+userID)

	var rows []struct {
		Value json.RawMessage `json:"value"`
	}
	if err := c.Rest(ctx, http.MethodGet, "app_state", q, nil, nil, &rows); err != nil {
		return nil, false, err
	}
	if len(rows) == 0 || rows[0].Value == nil {
		return nil, false, nil
	}
	return rows[0].Value, true, nil
}

// UpsertValue writes value under key, resolving conflicts on the key
// column. Idempotent: re-sending the same record is harmless.
func (c *Client) UpsertValue(ctx context.Context, key string, value json.RawMessage, userID string) error {
	if c == nil {
		return nil
	}
	q := url.Values{}
	q.Set("on_conflict", "key")
	hdr := map[string]string{"Prefer": "resolution=merge-duplicates"}
	rec := Record{
		Key:       key,
		Value:     value,
		UserID:    userID,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return c.Rest(ctx, http.MethodPost, "app_state", q, hdr, []Record{rec}, nil)
}

// DeleteValue removes the record for key.
func (c *Client) DeleteValue(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	q := url.Values{}
	q.Set("key", "eq."+key)
	return c.Rest(ctx, http.MethodDelete, "app_state", q, nil, nil, nil)
}
