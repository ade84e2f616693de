package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/flowday/internal/localstore"
)

const historyWindow = 14 // days per page

type historyModel struct {
	store  *localstore.Store
	width  int
	height int

	scores []localstore.DayScore
	offset int // 14-day blocks back from today (0 = current)

	chart barchart.Model
}

func newHistoryModel(store *localstore.Store) historyModel {
	return historyModel{
		store: store,
		chart: barchart.New(60, 12),
	}
}

func (m *historyModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := m.dateRange()
		scores, _ := m.store.ListDayScores(from, to)
		return historyDataMsg{scores: scores}
	}
}

func (m historyModel) dateRange() (string, string) {
	today := time.Now().UTC()
	end := today.AddDate(0, 0, -historyWindow*m.offset)
	start := end.AddDate(0, 0, -(historyWindow - 1))
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

func (m historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		m.scores = msg.scores
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset++
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			if m.offset > 0 {
				m.offset--
			}
			return m, m.refresh()
		case key.Matches(msg, keys.Refresh):
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m *historyModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	byDay := make(map[string]int, len(m.scores))
	for _, s := range m.scores {
		byDay[s.Day] = s.Score
	}

	from, _ := m.dateRange()
	start, _ := time.Parse("2006-01-02", from)

	var bars []barchart.BarData
	for i := 0; i < historyWindow; i++ {
		d := start.AddDate(0, 0, i)
		day := d.Format("2006-01-02")
		label := d.Format("02")

		score, ok := byDay[day]
		style := lipgloss.NewStyle().Foreground(scoreColor(score))
		if !ok {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}

		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: day, Value: float64(score), Style: style},
			},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func scoreColor(score int) lipgloss.Color {
	switch {
	case score >= 80:
		return colorSuccess
	case score >= 60:
		return colorHighlight
	case score >= 40:
		return colorWarning
	default:
		return colorError
	}
}

func (m historyModel) view() string {
	w := m.width - 4

	from, to := m.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from, to))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Day Scores"), "  ", dateLabel,
	)

	chartView := m.chart.View()
	tableView := m.renderScoreTable(w)
	nav := mutedStyle.Render("  ←/→: navigate  r: refresh  E: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", tableView, "", nav,
		),
	)
}

func (m historyModel) renderScoreTable(w int) string {
	if len(m.scores) == 0 {
		return mutedStyle.Render("  No archived days in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %6s %8s", "Day", "Score", "")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", clamp(w-6, 10, 30))))

	for _, s := range m.scores {
		dot := lipgloss.NewStyle().Foreground(scoreColor(s.Score)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %4d/100", s.Day, dot, s.Score))
	}

	return strings.Join(rows, "\n")
}
