package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/flowday/internal/auth"
	"github.com/sadopc/flowday/internal/config"
)

type settingsModel struct {
	auth   *auth.Manager
	cfg    config.Config
	width  int
	height int

	formActive bool
	form       *huh.Form
	formType   string // "signin", "signup"

	// Form values as pointers (survive value copies)
	email    *string
	password *string
	fullName *string
}

func newSettingsModel(mgr *auth.Manager, cfg config.Config) settingsModel {
	if mgr == nil {
		mgr = auth.NewManager(nil, nil)
	}
	email, password, name := "", "", ""
	return settingsModel{
		auth:     mgr,
		cfg:      cfg,
		email:    &email,
		password: &password,
		fullName: &name,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Start):
			if s.auth.User() == nil && s.cfg.RemoteConfigured() {
				return s.showForm("signin")
			}
		case key.Matches(msg, keys.Add):
			if s.auth.User() == nil && s.cfg.RemoteConfigured() {
				return s.showForm("signup")
			}
		case key.Matches(msg, keys.Delete):
			if s.auth.User() != nil {
				mgr := s.auth
				return s, func() tea.Msg {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					mgr.SignOut(ctx)
					return authDoneMsg{action: "signout"}
				}
			}
		}
	}
	return s, nil
}

func (s settingsModel) showForm(kind string) (settingsModel, tea.Cmd) {
	*s.email = ""
	*s.password = ""
	*s.fullName = ""
	s.formType = kind

	fields := []huh.Field{
		huh.NewInput().Title("Email").Value(s.email),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(s.password),
	}
	if kind == "signup" {
		fields = append(fields, huh.NewInput().Title("Full name").Value(s.fullName))
	}

	s.form = huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(true).
		WithShowErrors(true)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		mgr := s.auth
		email, password, name := *s.email, *s.password, *s.fullName
		kind := s.formType
		return s, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			var err error
			if kind == "signup" {
				err = mgr.SignUp(ctx, email, password, name)
			} else {
				err = mgr.SignIn(ctx, email, password)
			}
			return authDoneMsg{err: err, action: kind}
		}
	}

	return s, cmd
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Sign In")
		if s.formType == "signup" {
			title = titleStyle.Render("Create Account")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	account := s.renderAccount(w)
	sync := s.renderSync(w)
	return lipgloss.JoinVertical(lipgloss.Left, account, sync)
}

func (s settingsModel) renderAccount(w int) string {
	title := titleStyle.Render("Account")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	user := s.auth.User()
	switch {
	case user != nil:
		name := user.Metadata["full_name"]
		if name == "" {
			name = user.Email
		}
		rows = append(rows, "  "+highlightStyle.Render(name))
		rows = append(rows, "  "+mutedStyle.Render(user.Email))
		if s.auth.IsAdmin() {
			rows = append(rows, "  "+warningStyle.Render("admin"))
		}
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  d: sign out"))
	case !s.cfg.RemoteConfigured():
		rows = append(rows, mutedStyle.Render("  Local-only mode. Set remote_url and remote_key"))
		rows = append(rows, mutedStyle.Render("  in ~/.config/flowday/config.toml to enable sync."))
	default:
		rows = append(rows, mutedStyle.Render("  Not signed in."))
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  enter: sign in  n: create account"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s settingsModel) renderSync(w int) string {
	title := titleStyle.Render("Sync")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if s.cfg.RemoteConfigured() {
		rows = append(rows, "  Backend   "+highlightStyle.Render(s.cfg.RemoteURL))
	} else {
		rows = append(rows, "  Backend   "+mutedStyle.Render("(none)"))
	}
	rows = append(rows, "  Debounce  "+highlightStyle.Render(s.cfg.Debounce.String()))
	rows = append(rows, "  Day poll  "+highlightStyle.Render(s.cfg.PollEvery.String()))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
