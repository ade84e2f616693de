package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type trackerRow int

const (
	rowWater trackerRow = iota
	rowSleep
	rowMood
	rowMeals
	rowGratitude
	rowPomodoro
	trackerRowCount
)

var (
	moodFaces = []string{"😢", "😕", "😐", "😊", "😄"}
	moodNames = []string{"Awful", "Meh", "Okay", "Good", "Amazing"}
	mealNames = []string{"Breakfast", "Lunch", "Dinner"}
)

type pomodoroPhase int

const (
	pomodoroIdle pomodoroPhase = iota
	pomodoroWork
	pomodoroBreak
)

const (
	pomodoroWorkLen  = 25 * time.Minute
	pomodoroBreakLen = 5 * time.Minute
)

type trackersModel struct {
	slots  *SlotSet
	width  int
	height int

	cursor     trackerRow
	gratCursor int
	mealCursor int

	formActive bool
	formMeal   bool // the open form edits a meal, not a gratitude entry
	form       *huh.Form
	formText   *string

	phase     pomodoroPhase
	remaining time.Duration
	phaseEnd  time.Time
}

func newTrackersModel(slots *SlotSet) trackersModel {
	text := ""
	return trackersModel{
		slots:    slots,
		formText: &text,
	}
}

func (m *trackersModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m trackersModel) update(msg tea.Msg) (trackersModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tickMsg:
		if m.phase != pomodoroIdle {
			m.remaining = time.Until(m.phaseEnd)
			if m.remaining <= 0 {
				return m.advancePhase()
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m trackersModel) updateKeys(msg tea.KeyMsg) (trackersModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		switch {
		case m.cursor == rowMeals && m.mealCursor > 0:
			m.mealCursor--
		case m.cursor == rowGratitude && m.gratCursor > 0:
			m.gratCursor--
		case m.cursor > 0:
			m.cursor--
			m.mealCursor = len(mealNames) - 1
			m.gratCursor = 2
		}
	case key.Matches(msg, keys.Down):
		switch {
		case m.cursor == rowMeals && m.mealCursor < len(mealNames)-1:
			m.mealCursor++
		case m.cursor == rowGratitude && m.gratCursor < 2:
			m.gratCursor++
		case m.cursor < trackerRowCount-1:
			m.cursor++
			m.mealCursor = 0
			m.gratCursor = 0
		}

	case key.Matches(msg, keys.Right):
		switch m.cursor {
		case rowWater:
			m.slots.WaterGlasses.Update(func(n int) int { return n + 1 })
		case rowSleep:
			m.slots.SleepHours.Update(func(h float64) float64 { return h + sleepStep })
		case rowMood:
			m.slots.Mood.Update(func(i int) int {
				if i < len(moodNames)-1 {
					return i + 1
				}
				return i
			})
		}
	case key.Matches(msg, keys.Left):
		switch m.cursor {
		case rowWater:
			m.slots.WaterGlasses.Update(func(n int) int {
				if n > 0 {
					return n - 1
				}
				return n
			})
		case rowSleep:
			m.slots.SleepHours.Update(func(h float64) float64 {
				if h >= sleepStep {
					return h - sleepStep
				}
				return h
			})
		case rowMood:
			m.slots.Mood.Update(func(i int) int {
				if i > 0 {
					return i - 1
				}
				return i
			})
		}

	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		switch m.cursor {
		case rowGratitude:
			return m.showGratitudeForm()
		case rowMeals:
			return m.showMealForm()
		}

	case key.Matches(msg, keys.Start):
		if m.cursor == rowPomodoro && m.phase == pomodoroIdle {
			m.phase = pomodoroWork
			m.remaining = pomodoroWorkLen
			m.phaseEnd = time.Now().Add(pomodoroWorkLen)
		}
	case key.Matches(msg, keys.Cancel):
		if m.phase != pomodoroIdle {
			m.phase = pomodoroIdle
			m.remaining = 0
			return m, func() tea.Msg {
				return statusMsg{text: "Pomodoro cancelled"}
			}
		}
	case key.Matches(msg, keys.Toggle):
		// Skip the break
		if m.cursor == rowPomodoro && m.phase == pomodoroBreak {
			m.phase = pomodoroWork
			m.remaining = pomodoroWorkLen
			m.phaseEnd = time.Now().Add(pomodoroWorkLen)
		}
	}
	return m, nil
}

func (m trackersModel) advancePhase() (trackersModel, tea.Cmd) {
	switch m.phase {
	case pomodoroWork:
		m.slots.PomodoroSessions.Update(func(n int) int { return n + 1 })
		m.phase = pomodoroBreak
		m.remaining = pomodoroBreakLen
		m.phaseEnd = time.Now().Add(pomodoroBreakLen)
		return m, func() tea.Msg {
			return statusMsg{text: "Focus session done, take a break \a"}
		}
	case pomodoroBreak:
		m.phase = pomodoroWork
		m.remaining = pomodoroWorkLen
		m.phaseEnd = time.Now().Add(pomodoroWorkLen)
		return m, func() tea.Msg {
			return statusMsg{text: "Back to work \a"}
		}
	}
	return m, nil
}

func (m trackersModel) showGratitudeForm() (trackersModel, tea.Cmd) {
	entries := m.slots.Gratitude.Get()
	*m.formText = ""
	if m.gratCursor < len(entries) {
		*m.formText = entries[m.gratCursor]
	}
	m.formMeal = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(fmt.Sprintf("Grateful for #%d", m.gratCursor+1)).Value(m.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m trackersModel) showMealForm() (trackersModel, tea.Cmd) {
	meals := m.slots.Meals.Get()
	*m.formText = mealField(meals, m.mealCursor)
	m.formMeal = true

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(mealNames[m.mealCursor]).Value(m.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m trackersModel) updateForm(msg tea.Msg) (trackersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		text := strings.TrimSpace(*m.formText)
		if m.formMeal {
			idx := m.mealCursor
			m.slots.Meals.Update(func(ms Meals) Meals {
				return setMealField(ms, idx, text)
			})
			return m, nil
		}
		idx := m.gratCursor
		m.slots.Gratitude.Update(func(es []string) []string {
			for len(es) < 3 {
				es = append(es, "")
			}
			es[idx] = text
			return es
		})
		return m, nil
	}

	return m, cmd
}

func mealField(ms Meals, idx int) string {
	switch idx {
	case 0:
		return ms.Breakfast
	case 1:
		return ms.Lunch
	default:
		return ms.Dinner
	}
}

func setMealField(ms Meals, idx int, text string) Meals {
	switch idx {
	case 0:
		ms.Breakfast = text
	case 1:
		ms.Lunch = text
	default:
		ms.Dinner = text
	}
	return ms
}

func (m trackersModel) view() string {
	if m.formActive && m.form != nil {
		title := titleStyle.Render("Gratitude")
		if m.formMeal {
			title = titleStyle.Render("Meals")
		}
		return panelStyle.Width(m.width - 4).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	w := m.width - 4

	panels := []string{
		m.renderWater(w),
		m.renderSleep(w),
		m.renderMood(w),
		m.renderMeals(w),
		m.renderGratitude(w),
		m.renderPomodoro(w),
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (m trackersModel) renderMood(w int) string {
	mood := m.slots.Mood.Get()

	title := titleStyle.Render("Mood")

	var cells []string
	for i, face := range moodFaces {
		if i == mood {
			cells = append(cells, selectedItemStyle.Render(face+" "+moodNames[i]))
		} else {
			cells = append(cells, mutedStyle.Render(face))
		}
	}
	row := strings.Join(cells, "  ")

	hint := mutedStyle.Render("←/→ pick")
	if mood == moodUnset {
		hint = mutedStyle.Render("not recorded  ←/→ pick")
	}

	style := panelStyle
	if m.cursor == rowMood {
		style = activePanelStyle
	}
	return style.Width(w).Render(fmt.Sprintf("%s  %s\n%s", title, hint, row))
}

func (m trackersModel) renderMeals(w int) string {
	meals := m.slots.Meals.Get()

	title := titleStyle.Render("Meals")

	var rows []string
	rows = append(rows, title)
	for i, name := range mealNames {
		cursor := "  "
		style := normalItemStyle
		if m.cursor == rowMeals && i == m.mealCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		content := mealField(meals, i)
		if content == "" {
			rows = append(rows, fmt.Sprintf("%s%-10s %s", cursor, name, mutedStyle.Render("(empty)")))
		} else {
			rows = append(rows, fmt.Sprintf("%s%-10s %s", cursor, name, style.Render(content)))
		}
	}

	style := panelStyle
	if m.cursor == rowMeals {
		style = activePanelStyle
	}
	return style.Width(w).Render(strings.Join(rows, "\n"))
}

func (m trackersModel) renderWater(w int) string {
	n := m.slots.WaterGlasses.Get()

	title := titleStyle.Render("Water")
	count := highlightStyle.Render(formatGlasses(n, waterGoal))

	gauge := renderGauge(n, waterGoal)
	if n >= waterGoal {
		count += successStyle.Render("  goal!")
	}

	style := panelStyle
	if m.cursor == rowWater {
		style = activePanelStyle
	}
	return style.Width(w).Render(fmt.Sprintf("%s  %s\n%s", title, count, gauge))
}

func (m trackersModel) renderSleep(w int) string {
	h := m.slots.SleepHours.Get()

	title := titleStyle.Render("Sleep")
	amount := highlightStyle.Render(formatHoursSlept(h))
	hint := mutedStyle.Render(fmt.Sprintf("goal %.0fh  ←/→ adjust by %.1fh", sleepGoal, sleepStep))

	style := panelStyle
	if m.cursor == rowSleep {
		style = activePanelStyle
	}
	return style.Width(w).Render(fmt.Sprintf("%s  %s\n%s", title, amount, hint))
}

func (m trackersModel) renderGratitude(w int) string {
	entries := m.slots.Gratitude.Get()

	title := titleStyle.Render("Gratitude")

	var rows []string
	rows = append(rows, title)
	for i := 0; i < 3; i++ {
		text := ""
		if i < len(entries) {
			text = entries[i]
		}
		cursor := "  "
		style := normalItemStyle
		if m.cursor == rowGratitude && i == m.gratCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		if text == "" {
			rows = append(rows, fmt.Sprintf("%s%d. %s", cursor, i+1, mutedStyle.Render("(empty)")))
		} else {
			rows = append(rows, fmt.Sprintf("%s%d. %s", cursor, i+1, style.Render(text)))
		}
	}

	style := panelStyle
	if m.cursor == rowGratitude {
		style = activePanelStyle
	}
	return style.Width(w).Render(strings.Join(rows, "\n"))
}

func (m trackersModel) renderPomodoro(w int) string {
	sessions := m.slots.PomodoroSessions.Get()

	title := titleStyle.Render("Pomodoro")
	count := mutedStyle.Render(fmt.Sprintf("%d sessions today", sessions))

	var body string
	switch m.phase {
	case pomodoroIdle:
		body = mutedStyle.Render(formatCountdown(pomodoroWorkLen) + "  s: start")
	case pomodoroWork:
		body = accentStyle.Bold(true).Render(formatCountdown(m.remaining)) + accentStyle.Render("  FOCUS") + mutedStyle.Render("  x: cancel")
	case pomodoroBreak:
		body = successStyle.Bold(true).Render(formatCountdown(m.remaining)) + successStyle.Render("  BREAK") + mutedStyle.Render("  space: skip  x: cancel")
	}

	style := panelStyle
	if m.cursor == rowPomodoro {
		style = activePanelStyle
	}
	return style.Width(w).Render(fmt.Sprintf("%s  %s\n%s", title, count, body))
}

func renderGauge(n, goal int) string {
	if n > goal {
		n = goal
	}
	filled := strings.Repeat("█", n)
	empty := strings.Repeat("░", goal-n)
	return gaugeFilledStyle.Render(filled) + gaugeEmptyStyle.Render(empty)
}
