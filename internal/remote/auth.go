package remote

import (
	"context"
	"net/http"
	"net/url"
)

// User is the backend's view of an account.
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"user_metadata"`
}

// Role returns the account role recorded in the user metadata, defaulting
// to "user".
func (u User) Role() string {
	if u.Metadata["role"] == "admin" {
		return "admin"
	}
	return "user"
}

// Session is an authenticated session: tokens plus the owning user.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// SignIn exchanges email/password credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if c == nil {
		return nil, nil
	}
	q := url.Values{}
	q.Set("grant_type", "password")
	body := map[string]string{"email": email, "password": password}
	var sess Session
	if err := c.authRequest(ctx, http.MethodPost, "token", q, body, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.AccessToken)
	return &sess, nil
}

// SignUp registers a new account. Depending on backend settings the session
// may require email confirmation before its tokens work.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	if c == nil {
		return nil, nil
	}
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	var sess Session
	if err := c.authRequest(ctx, http.MethodPost, "signup", nil, body, &sess); err != nil {
		return nil, err
	}
	if sess.AccessToken != "" {
		c.SetToken(sess.AccessToken)
	}
	return &sess, nil
}

// SignOut revokes the current session and reverts to the anonymous key.
func (c *Client) SignOut(ctx context.Context) error {
	if c == nil {
		return nil
	}
	err := c.authRequest(ctx, http.MethodPost, "logout", nil, nil, nil)
	c.SetToken("")
	return err
}

// ResetPassword sends a password recovery email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	if c == nil {
		return nil
	}
	return c.authRequest(ctx, http.MethodPost, "recover", nil, map[string]string{"email": email}, nil)
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	if c == nil {
		return nil
	}
	return c.authRequest(ctx, http.MethodPut, "user", nil, map[string]string{"password": newPassword}, nil)
}

// CurrentUser fetches the user owning the current token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if c == nil {
		return nil, nil
	}
	var u User
	if err := c.authRequest(ctx, http.MethodGet, "user", nil, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}
