package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/flowday/internal/admin"
	"github.com/sadopc/flowday/internal/auth"
	"github.com/sadopc/flowday/internal/config"
	"github.com/sadopc/flowday/internal/export"
	"github.com/sadopc/flowday/internal/localstore"
	"github.com/sadopc/flowday/internal/state"
)

const toastDuration = 8 * time.Second

// Deps carries everything the UI needs, wired up in main.
type Deps struct {
	Slots    *SlotSet
	Store    *localstore.Store
	Auth     *auth.Manager
	Admin    *admin.Service
	Rollover *state.Rollover
	Config   config.Config
}

// App is the root Bubble Tea model.
type App struct {
	deps   Deps
	width  int
	height int

	activeView    viewState
	showHelp      bool
	confirming    bool // start-fresh-day confirm modal
	exportPicking bool
	exportCursor  int

	toast    string // fresh-start toast text, "" when hidden
	toastDay string

	dashboard dashboardModel
	trackers  trackersModel
	notes     notesModel
	history   historyModel
	admin     adminModel
	settings  settingsModel

	help   help.Model
	status string
}

func NewApp(deps Deps) App {
	h := help.New()
	h.ShowAll = false

	return App{
		deps:       deps,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(deps.Slots),
		trackers:   newTrackersModel(deps.Slots),
		notes:      newNotesModel(deps.Slots),
		history:    newHistoryModel(deps.Store),
		admin:      newAdminModel(deps.Admin),
		settings:   newSettingsModel(deps.Auth, deps.Config),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.history.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.trackers.setSize(a.width, contentHeight)
		a.notes.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.admin.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.confirming {
			return a.updateConfirm(msg)
		}
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (form or textarea), delegate
		// first.
		if a.isCapturingInput() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.NewDay):
			a.confirming = true
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTrackers
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewNotes
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab5):
			if a.adminVisible() {
				a.activeView = viewAdmin
				return a, a.admin.refresh()
			}
			return a, nil
		case key.Matches(msg, keys.Tab6):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			return a.nextView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// The pomodoro countdown always runs, visible or not.
		var cmd tea.Cmd
		a.trackers, cmd = a.trackers.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case FreshStartMsg:
		a.toast = fmt.Sprintf("Fresh start! Welcome to %s", msg.Day)
		a.toastDay = msg.Day
		a.notes.refresh()
		day := msg.Day
		return a, tea.Batch(
			a.history.refresh(),
			tea.Tick(toastDuration, func(time.Time) tea.Msg {
				return toastExpiredMsg{day: day}
			}),
		)

	case toastExpiredMsg:
		// A newer toast keeps its own expiry.
		if msg.day == a.toastDay {
			a.toast = ""
		}
		return a, nil

	case newDayDoneMsg:
		if msg.started {
			a.status = "Started a fresh day"
		} else {
			a.status = "Already on today"
		}
		a.notes.refresh()
		return a, a.history.refresh()

	case authDoneMsg:
		switch {
		case msg.err != nil:
			a.status = fmt.Sprintf("Auth error: %v", msg.err)
		case msg.action == "signout":
			a.status = "Signed out"
		case msg.action == "signup":
			a.status = "Account created"
		default:
			a.status = "Signed in"
		}
		if msg.err == nil {
			// Widget state moves to the new identity's storage keys.
			a.deps.Slots.RefreshUser()
			a.notes.refresh()
		}
		return a, nil

	case historyDataMsg:
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd

	case adminStatsMsg, adminUsersMsg:
		var cmd tea.Cmd
		a.admin, cmd = a.admin.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTrackers:
		a.trackers, cmd = a.trackers.update(msg)
	case viewNotes:
		a.notes, cmd = a.notes.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewAdmin:
		a.admin, cmd = a.admin.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturingInput() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewTrackers:
		return a.trackers.formActive
	case viewNotes:
		return a.notes.editing
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) adminVisible() bool {
	return a.deps.Auth != nil && a.deps.Auth.IsAdmin()
}

func (a App) nextView() (tea.Model, tea.Cmd) {
	next := (a.activeView + 1) % viewState(len(viewNames))
	if next == viewAdmin && !a.adminVisible() {
		next++
	}
	a.activeView = next

	switch next {
	case viewHistory:
		return a, a.history.refresh()
	case viewAdmin:
		return a, a.admin.refresh()
	}
	return a, nil
}

func (a App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		a.confirming = false
		rollover := a.deps.Rollover
		return a, func() tea.Msg {
			return newDayDoneMsg{started: rollover.StartNewDay()}
		}
	default:
		a.confirming = false
	}
	return a, nil
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	store := a.deps.Store
	return func() tea.Msg {
		scores, err := store.ListDayScores("0000-01-01", "9999-12-31")
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("flowday-scores-%s.csv", dateStr))
			if err := export.ScoresToCSV(scores, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("flowday-scores-%s.json", dateStr))
			if err := export.ScoresToJSON(scores, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTrackers:
		content = a.trackers.view()
	case viewNotes:
		content = a.notes.view()
	case viewHistory:
		content = a.history.view()
	case viewAdmin:
		content = a.admin.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.confirming {
		content = a.renderConfirm()
	}
	if a.exportPicking {
		content = a.renderExportPicker()
	}
	if a.toast != "" {
		content = lipgloss.JoinVertical(lipgloss.Left,
			toastStyle.Render("🌅 "+a.toast),
			content,
		)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == viewAdmin && !a.adminVisible() {
			continue
		}
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("flowday")
	day := mutedStyle.Render("  " + state.Today(nil))
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(day) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, day, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	syncInfo := ""
	if user := a.currentUserEmail(); user != "" {
		syncInfo = successStyle.Render(" ⇅ " + user)
	}

	left := footerStyle.Render(helpView)
	right := syncInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) currentUserEmail() string {
	if a.deps.Auth == nil {
		return ""
	}
	if u := a.deps.Auth.User(); u != nil {
		return u.Email
	}
	return ""
}

func (a App) renderConfirm() string {
	title := titleStyle.Render("Start a fresh day?")
	body := mutedStyle.Render("Today's widgets reset and the day is archived.")
	hint := mutedStyle.Render("y: yes  esc: cancel")

	w := a.width - 4
	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint),
	)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Score History")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
