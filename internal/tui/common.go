package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/flowday/internal/admin"
	"github.com/sadopc/flowday/internal/localstore"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTrackers
	viewNotes
	viewHistory
	viewAdmin
	viewSettings
)

var viewNames = []string{"Dashboard", "Trackers", "Notes", "History", "Admin", "Settings"}

// --- Messages ---

// FreshStartMsg announces that a new day has begun. The rollover poller sends
// it into the program from its own goroutine.
type FreshStartMsg struct {
	Day string
}

type toastExpiredMsg struct {
	day string
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type historyDataMsg struct {
	scores []localstore.DayScore
}

type adminStatsMsg struct {
	stats *admin.Stats
	err   error
}

type adminUsersMsg struct {
	users []admin.UserProfile
	total int
	err   error
}

type authDoneMsg struct {
	err    error
	action string // "signin", "signup", "signout"
}

type exportDoneMsg struct {
	path string
}

type newDayDoneMsg struct {
	started bool
}

// --- Helpers ---

func formatGlasses(n, goal int) string {
	return fmt.Sprintf("%d/%d", n, goal)
}

func formatHoursSlept(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
