// Package auth keeps the signed-in session: credentials flow through the
// backend's auth API, and the resulting session is cached in the local
// store so a restart (or going offline) does not log the user out.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/sadopc/flowday/internal/remote"
	"github.com/sadopc/flowday/internal/state"
)

// SessionKey is the local-store key holding the cached session. It carries
// no day fragment, so rollover purges never touch it.
const SessionKey = state.Namespace + "local_session"

// Manager owns the current session and implements state.UserProvider, so
// the key namespacer gets the user ID by injection instead of scanning
// storage keys.
type Manager struct {
	client *remote.Client // nil in local-only mode
	local  state.LocalStore

	mu   sync.RWMutex
	sess *remote.Session
}

func NewManager(client *remote.Client, local state.LocalStore) *Manager {
	return &Manager{client: client, local: local}
}

// Restore loads the cached session, installs its token, and refreshes the
// user record from the backend when reachable. Offline, the cached user
// stands in.
func (m *Manager) Restore(ctx context.Context) {
	raw, ok := m.local.Read(SessionKey)
	if !ok {
		return
	}
	var sess remote.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.User.ID == "" {
		return
	}

	m.mu.Lock()
	m.sess = &sess
	m.mu.Unlock()
	m.client.SetToken(sess.AccessToken)

	if !m.client.Enabled() {
		return
	}
	u, err := m.client.CurrentUser(ctx)
	if err != nil {
		log.Printf("auth: session refresh: %v", err)
		return
	}
	if u == nil {
		// Token rejected; drop the stale session.
		m.clear()
		return
	}
	m.mu.Lock()
	m.sess.User = *u
	m.mu.Unlock()
	m.persist()
}

// SignIn authenticates with email/password and caches the session.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if !m.client.Enabled() {
		return fmt.Errorf("sign in: no backend configured")
	}
	sess, err := m.client.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()
	m.persist()
	return nil
}

// SignUp registers a new account and, when the backend returns a live
// session, signs the user in.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string) error {
	if !m.client.Enabled() {
		return fmt.Errorf("sign up: no backend configured")
	}
	sess, err := m.client.SignUp(ctx, email, password, fullName)
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	if sess == nil || sess.AccessToken == "" {
		// Email confirmation pending; nothing to cache yet.
		return nil
	}
	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()
	m.persist()
	return nil
}

// SignOut revokes the session on the backend (best-effort) and forgets it
// locally.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.client.SignOut(ctx); err != nil {
		log.Printf("auth: sign out: %v", err)
	}
	m.clear()
}

// ResetPassword sends a recovery email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if !m.client.Enabled() {
		return fmt.Errorf("reset password: no backend configured")
	}
	return m.client.ResetPassword(ctx, email)
}

// UpdatePassword changes the signed-in user's password.
func (m *Manager) UpdatePassword(ctx context.Context, newPassword string) error {
	if !m.client.Enabled() {
		return fmt.Errorf("update password: no backend configured")
	}
	return m.client.UpdatePassword(ctx, newPassword)
}

// CurrentUserID implements state.UserProvider. Empty means anonymous.
func (m *Manager) CurrentUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return ""
	}
	return m.sess.User.ID
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *remote.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil
	}
	u := m.sess.User
	return &u
}

// IsAdmin reports whether the signed-in user has the admin role.
func (m *Manager) IsAdmin() bool {
	u := m.User()
	return u != nil && u.Role() == "admin"
}

func (m *Manager) persist() {
	m.mu.RLock()
	sess := m.sess
	m.mu.RUnlock()
	if sess == nil {
		return
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		log.Printf("auth: cache session: %v", err)
		return
	}
	m.local.Write(SessionKey, raw)
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	m.client.SetToken("")
	m.local.DeleteMatching(func(k string) bool { return k == SessionKey })
}
