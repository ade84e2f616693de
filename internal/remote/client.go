// Package remote talks to the hosted backend: a PostgREST-style key/value
// API plus auth and RPC endpoints. A nil *Client is valid everywhere and
// degrades every call to a successful no-op, so the rest of the app never
// branches on whether a backend is configured.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Client is an HTTP client for the flowday backend.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	mu    sync.RWMutex
	token string // bearer token; the API key until someone signs in
}

// New builds a client for the backend at baseURL. Empty inputs yield nil,
// i.e. local-only mode.
func New(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || apiKey == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		token:   apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a backend is configured.
func (c *Client) Enabled() bool { return c != nil }

// SetToken installs the access token of a signed-in session. An empty
// token reverts to the anonymous API key.
func (c *Client) SetToken(token string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.token = c.apiKey
	} else {
		c.token = token
	}
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Rest performs one request against the data API. path is relative to
// /rest/v1 (e.g. "app_state"), q carries PostgREST filters, body is JSON
// encoded when non-nil, and the response is decoded into out when non-nil.
// Extra headers (e.g. Prefer) go in hdr.
func (c *Client) Rest(ctx context.Context, method, path string, q url.Values, hdr map[string]string, body, out any) error {
	if c == nil {
		return nil
	}
	u := c.baseURL + "/rest/v1/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return c.do(ctx, method, u, hdr, body, out)
}

// RestCounted is Rest for paginated queries: with a "Prefer: count=exact"
// header the backend reports the total match count in Content-Range
// ("0-9/42"); that total is returned alongside the decoded page.
func (c *Client) RestCounted(ctx context.Context, method, path string, q url.Values, hdr map[string]string, body, out any) (int, error) {
	if c == nil {
		return 0, nil
	}
	u := c.baseURL + "/rest/v1/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var contentRange string
	err := c.doCapture(ctx, method, u, hdr, body, out, &contentRange)
	if err != nil {
		return 0, err
	}
	return parseTotal(contentRange), nil
}

func parseTotal(contentRange string) int {
	i := strings.LastIndexByte(contentRange, '/')
	if i < 0 {
		return 0
	}
	total := contentRange[i+1:]
	if total == "*" {
		return 0
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0
	}
	return n
}

// authRequest hits the auth API (/auth/v1/...).
func (c *Client) authRequest(ctx context.Context, method, path string, q url.Values, body, out any) error {
	if c == nil {
		return nil
	}
	u := c.baseURL + "/auth/v1/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return c.do(ctx, method, u, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, u string, hdr map[string]string, body, out any) error {
	return c.doCapture(ctx, method, u, hdr, body, out, nil)
}

func (c *Client) doCapture(ctx context.Context, method, u string, hdr map[string]string, body, out any, contentRange *string) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if contentRange != nil {
		*contentRange = resp.Header.Get("Content-Range")
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Body: compact(raw)}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

func compact(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
