package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/flowday/internal/admin"
)

const adminPageSize = 10

type adminModel struct {
	svc    *admin.Service
	width  int
	height int

	stats  *admin.Stats
	users  []admin.UserProfile
	total  int
	page   int
	cursor int

	loadErr error
}

func newAdminModel(svc *admin.Service) adminModel {
	return adminModel{svc: svc, page: 1}
}

func (m *adminModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m adminModel) refresh() tea.Cmd {
	if m.svc == nil || !m.svc.Enabled() {
		return nil
	}
	page := m.page
	svc := m.svc
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			stats, err := svc.FetchStats(ctx)
			return adminStatsMsg{stats: stats, err: err}
		},
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			users, total, err := svc.ListUsers(ctx, admin.ListUsersOptions{
				Page:    page,
				PerPage: adminPageSize,
			})
			return adminUsersMsg{users: users, total: total, err: err}
		},
	)
}

func (m adminModel) update(msg tea.Msg) (adminModel, tea.Cmd) {
	switch msg := msg.(type) {
	case adminStatsMsg:
		m.stats = msg.stats
		m.loadErr = msg.err
		return m, nil

	case adminUsersMsg:
		m.users = msg.users
		m.total = msg.total
		if msg.err != nil {
			m.loadErr = msg.err
		}
		if m.cursor >= len(m.users) {
			m.cursor = clamp(len(m.users)-1, 0, adminPageSize)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Left):
			if m.page > 1 {
				m.page--
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Right):
			if m.page*adminPageSize < m.total {
				m.page++
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Refresh):
			return m, m.refresh()
		case key.Matches(msg, keys.Toggle):
			return m.toggleBlock()
		}
	}
	return m, nil
}

func (m adminModel) toggleBlock() (adminModel, tea.Cmd) {
	if m.cursor >= len(m.users) {
		return m, nil
	}
	u := m.users[m.cursor]
	next := "blocked"
	if u.Status == "blocked" {
		next = "active"
	}
	svc := m.svc
	refresh := m.refresh()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := svc.UpdateUserStatus(ctx, u.ID, next); err != nil {
			return statusMsg{text: fmt.Sprintf("Update failed: %v", err), isError: true}
		}
		return refresh()
	}
}

func (m adminModel) view() string {
	w := m.width - 4

	if m.svc == nil || !m.svc.Enabled() {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				titleStyle.Render("Admin"),
				"",
				mutedStyle.Render("No backend configured."),
			),
		)
	}

	statsPanel := m.renderStats(w)
	usersPanel := m.renderUsers(w)

	return lipgloss.JoinVertical(lipgloss.Left, statsPanel, usersPanel)
}

func (m adminModel) renderStats(w int) string {
	title := titleStyle.Render("Overview")

	if m.stats == nil {
		body := mutedStyle.Render("Loading... (r to refresh)")
		if m.loadErr != nil {
			body = errorStyle.Render(fmt.Sprintf("Load failed: %v", m.loadErr))
		}
		return panelStyle.Width(w).Render(title + "\n" + body)
	}

	s := m.stats
	row1 := fmt.Sprintf("  Users: %s   Active: %s   Blocked: %s",
		highlightStyle.Render(fmt.Sprintf("%d", s.TotalUsers)),
		successStyle.Render(fmt.Sprintf("%d", s.ActiveUsers)),
		errorStyle.Render(fmt.Sprintf("%d", s.BlockedUsers)),
	)
	row2 := fmt.Sprintf("  Signups today/week/month: %d / %d / %d   Entries: %d",
		s.SignupsToday, s.SignupsWeek, s.SignupsMonth, s.TotalDataEntries,
	)

	return panelStyle.Width(w).Render(strings.Join([]string{title, "", row1, row2}, "\n"))
}

func (m adminModel) renderUsers(w int) string {
	pages := (m.total + adminPageSize - 1) / adminPageSize
	if pages < 1 {
		pages = 1
	}
	title := titleStyle.Render("Users") +
		mutedStyle.Render(fmt.Sprintf("  page %d/%d (%d total)", m.page, pages, m.total))

	if len(m.users) == 0 {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("  No users")),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %-28s %-8s", "Name", "Email", "Status")))

	for i, u := range m.users {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		status := successStyle.Render(u.Status)
		if u.Status == "blocked" {
			status = errorStyle.Render(u.Status)
		}
		name := u.FullName
		if name == "" {
			name = mutedStyle.Render("(no name)")
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s %-28s ", cursor, name, u.Email))+status)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  space: block/unblock  ←/→: pages  r: refresh"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
