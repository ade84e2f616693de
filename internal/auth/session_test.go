package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sadopc/flowday/internal/remote"
)

// memLocal is a map-backed state.LocalStore.
type memLocal struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemLocal() *memLocal { return &memLocal{data: make(map[string]string)} }

func (m *memLocal) Read(key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	return json.RawMessage(v), true
}

func (m *memLocal) Write(key string, value json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value)
}

func (m *memLocal) DeleteMatching(match func(string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if match(k) {
			delete(m.data, k)
		}
	}
}

func newAuthBackend(t *testing.T, routes map[string]http.HandlerFunc) *remote.Client {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return remote.New(srv.URL, "anon-key")
}

const sessionJSON = `{"access_token":"jwt-1","refresh_token":"r-1","user":{"id":"user-1","email":"a@b.c","user_metadata":{"role":"user"}}}`

// ============================================================
// Sign in / out
// ============================================================

func TestSignInCachesSession(t *testing.T) {
	client := newAuthBackend(t, map[string]http.HandlerFunc{
		"/auth/v1/token": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sessionJSON))
		},
	})
	local := newMemLocal()
	m := NewManager(client, local)

	if err := m.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	if m.CurrentUserID() != "user-1" {
		t.Fatalf("CurrentUserID = %q", m.CurrentUserID())
	}
	if m.IsAdmin() {
		t.Fatal("role user should not be admin")
	}
	if _, ok := local.Read(SessionKey); !ok {
		t.Fatal("session should be cached locally")
	}
}

func TestSignInBadCredentials(t *testing.T) {
	client := newAuthBackend(t, map[string]http.HandlerFunc{
		"/auth/v1/token": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		},
	})
	m := NewManager(client, newMemLocal())

	if err := m.SignIn(context.Background(), "a@b.c", "nope"); err == nil {
		t.Fatal("expected error")
	}
	if m.CurrentUserID() != "" {
		t.Fatal("failed sign-in must stay anonymous")
	}
}

func TestSignInWithoutBackend(t *testing.T) {
	m := NewManager(nil, newMemLocal())
	if err := m.SignIn(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatal("expected error without a backend")
	}
}

func TestSignOutForgetsSession(t *testing.T) {
	client := newAuthBackend(t, map[string]http.HandlerFunc{
		"/auth/v1/token": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sessionJSON))
		},
		"/auth/v1/logout": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})
	local := newMemLocal()
	m := NewManager(client, local)
	m.SignIn(context.Background(), "a@b.c", "pw")

	m.SignOut(context.Background())
	if m.CurrentUserID() != "" {
		t.Fatal("expected anonymous after sign-out")
	}
	if _, ok := local.Read(SessionKey); ok {
		t.Fatal("cached session should be deleted")
	}
}

// ============================================================
// Restore
// ============================================================

func TestRestoreRefreshesUser(t *testing.T) {
	client := newAuthBackend(t, map[string]http.HandlerFunc{
		"/auth/v1/user": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer jwt-1" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`{"id":"user-1","email":"new@b.c","user_metadata":{"role":"admin"}}`))
		},
	})
	local := newMemLocal()
	local.Write(SessionKey, json.RawMessage(sessionJSON))

	m := NewManager(client, local)
	m.Restore(context.Background())

	if m.CurrentUserID() != "user-1" {
		t.Fatalf("CurrentUserID = %q", m.CurrentUserID())
	}
	if !m.IsAdmin() {
		t.Fatal("refreshed role should be admin")
	}
}

func TestRestoreRejectedTokenClearsSession(t *testing.T) {
	client := newAuthBackend(t, map[string]http.HandlerFunc{
		"/auth/v1/user": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`)) // no user behind the token
		},
	})
	local := newMemLocal()
	local.Write(SessionKey, json.RawMessage(sessionJSON))

	m := NewManager(client, local)
	m.Restore(context.Background())

	if m.CurrentUserID() != "" {
		t.Fatal("stale session should be dropped")
	}
}

func TestRestoreOfflineKeepsCachedUser(t *testing.T) {
	// Point at a server that immediately closes: requests fail.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := remote.New(srv.URL, "anon-key")

	local := newMemLocal()
	local.Write(SessionKey, json.RawMessage(sessionJSON))

	m := NewManager(client, local)
	m.Restore(context.Background())

	if m.CurrentUserID() != "user-1" {
		t.Fatal("offline restore should keep the cached user")
	}
}

func TestRestoreNothingCached(t *testing.T) {
	m := NewManager(nil, newMemLocal())
	m.Restore(context.Background())
	if m.CurrentUserID() != "" {
		t.Fatal("expected anonymous")
	}
}

func TestRestoreCorruptCache(t *testing.T) {
	local := newMemLocal()
	local.Write(SessionKey, json.RawMessage(`"not a session"`))
	m := NewManager(nil, local)
	m.Restore(context.Background())
	if m.CurrentUserID() != "" {
		t.Fatal("corrupt cache reads as anonymous")
	}
}
