// Package admin implements the admin panel's backend queries: user
// management, aggregate stats, the activity log, and raw data browsing.
// Access control lives server-side; these calls simply fail for
// non-admin tokens.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/flowday/internal/remote"
)

// UserProfile is one row of the profiles table.
type UserProfile struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"` // active, blocked, deleted
	LastLogin string `json:"last_login"`
	CreatedAt string `json:"created_at"`
}

// Stats is the aggregate snapshot behind the admin dashboard header.
type Stats struct {
	TotalUsers       int `json:"total_users"`
	ActiveUsers      int `json:"active_users"`
	BlockedUsers     int `json:"blocked_users"`
	SignupsToday     int `json:"signups_today"`
	SignupsWeek      int `json:"signups_week"`
	SignupsMonth     int `json:"signups_month"`
	TotalDataEntries int `json:"total_data_entries"`
}

// ActivityEntry is one audit-log row.
type ActivityEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	CreatedAt string          `json:"created_at"`
}

// Service wraps the backend client for admin queries.
type Service struct {
	client *remote.Client
}

func NewService(client *remote.Client) *Service {
	return &Service{client: client}
}

// Enabled reports whether admin queries can run at all.
func (s *Service) Enabled() bool { return s.client.Enabled() }

// FetchStats returns the aggregate dashboard stats.
func (s *Service) FetchStats(ctx context.Context) (*Stats, error) {
	if !s.client.Enabled() {
		return nil, fmt.Errorf("admin stats: no backend configured")
	}
	var stats Stats
	if err := s.client.Rest(ctx, http.MethodPost, "rpc/admin_get_stats", nil, nil, map[string]string{}, &stats); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &stats, nil
}

// ListUsersOptions filters and paginates ListUsers. Zero values mean: no
// search, any status, first page, 10 per page.
type ListUsersOptions struct {
	Search  string
	Status  string
	Page    int
	PerPage int
}

// ListUsers returns one page of non-admin accounts, newest first, plus the
// total match count.
func (s *Service) ListUsers(ctx context.Context, opts ListUsersOptions) ([]UserProfile, int, error) {
	if !s.client.Enabled() {
		return nil, 0, fmt.Errorf("list users: no backend configured")
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("role", "eq.user")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(perPage))
	q.Set("offset", strconv.Itoa((page-1)*perPage))
	if opts.Status != "" && opts.Status != "all" {
		q.Set("status", "eq."+opts.Status)
	}
	if opts.Search != "" {
		q.Set("or", fmt.Sprintf("(full_name.ilike.%%%s%%,email.ilike.%%%s%%)", opts.Search, opts.Search))
	}

	hdr := map[string]string{"Prefer": "count=exact"}
	var users []UserProfile
	total, err := s.client.RestCounted(ctx, http.MethodGet, "profiles", q, hdr, nil, &users)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// UpdateUserStatus sets a user's status and appends the matching audit
// entry.
func (s *Service) UpdateUserStatus(ctx context.Context, userID, status string) error {
	if !s.client.Enabled() {
		return fmt.Errorf("update user status: no backend configured")
	}
	switch status {
	case "active", "blocked", "deleted":
	default:
		return fmt.Errorf("update user status: invalid status %q", status)
	}

	q := url.Values{}
	q.Set("id", "eq."+userID)
	body := map[string]string{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.client.Rest(ctx, http.MethodPatch, "profiles", q, nil, body, nil); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}

	action := "user_unblocked"
	switch status {
	case "blocked":
		action = "user_blocked"
	case "deleted":
		action = "user_deleted"
	}
	s.logAction(ctx, userID, action, map[string]string{"target_user": userID})
	return nil
}

// ListActivity returns the newest audit-log entries.
func (s *Service) ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if !s.client.Enabled() {
		return nil, fmt.Errorf("list activity: no backend configured")
	}
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	var entries []ActivityEntry
	if err := s.client.Rest(ctx, http.MethodGet, "activity_log", q, nil, nil, &entries); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

// ListEntriesOptions filters and paginates ListEntries.
type ListEntriesOptions struct {
	UserID  string
	Search  string // substring match on the storage key
	Page    int
	PerPage int
}

// ListEntries returns one page of raw app_state rows, newest first, plus
// the total match count.
func (s *Service) ListEntries(ctx context.Context, opts ListEntriesOptions) ([]remote.Record, int, error) {
	if !s.client.Enabled() {
		return nil, 0, fmt.Errorf("list entries: no backend configured")
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "updated_at.desc")
	q.Set("limit", strconv.Itoa(perPage))
	q.Set("offset", strconv.Itoa((page-1)*perPage))
	if opts.UserID != "" {
		q.Set("user_id", "eq."+opts.UserID)
	}
	if opts.Search != "" {
		q.Set("key", "ilike.%"+opts.Search+"%")
	}

	hdr := map[string]string{"Prefer": "count=exact"}
	var entries []remote.Record
	total, err := s.client.RestCounted(ctx, http.MethodGet, "app_state", q, hdr, nil, &entries)
	if err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	return entries, total, nil
}

// DeleteEntry removes one app_state row by key.
func (s *Service) DeleteEntry(ctx context.Context, key string) error {
	if !s.client.Enabled() {
		return fmt.Errorf("delete entry: no backend configured")
	}
	if err := s.client.DeleteValue(ctx, key); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// logAction appends an audit entry; failures are not fatal to the caller's
// operation.
func (s *Service) logAction(ctx context.Context, userID, action string, details any) {
	raw, err := json.Marshal(details)
	if err != nil {
		return
	}
	entry := ActivityEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Details:   raw,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.client.Rest(ctx, http.MethodPost, "activity_log", nil, nil, []ActivityEntry{entry}, nil)
}
