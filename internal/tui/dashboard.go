package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

type dashboardPane int

const (
	paneTodos dashboardPane = iota
	panePriorities
)

type dashboardModel struct {
	slots  *SlotSet
	width  int
	height int

	pane       dashboardPane
	todoCursor int
	prioCursor int

	formActive bool
	form       *huh.Form
	formText   *string
	editingID  string // todo ID, or "" when editing a priority
	editingIdx int
}

func newDashboardModel(slots *SlotSet) dashboardModel {
	text := ""
	return dashboardModel{
		slots:    slots,
		formText: &text,
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Left):
		d.pane = paneTodos
		return d, nil
	case key.Matches(keyMsg, keys.Right):
		d.pane = panePriorities
		return d, nil
	}

	if d.pane == panePriorities {
		return d.updatePriorities(keyMsg)
	}
	return d.updateTodos(keyMsg)
}

func (d dashboardModel) updateTodos(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	todos := d.slots.Todos.Get()

	switch {
	case key.Matches(msg, keys.Up):
		if d.todoCursor > 0 {
			d.todoCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.todoCursor < len(todos)-1 {
			d.todoCursor++
		}
	case key.Matches(msg, keys.Toggle):
		if d.todoCursor < len(todos) {
			id := todos[d.todoCursor].ID
			d.slots.Todos.Update(func(ts []Todo) []Todo {
				for i := range ts {
					if ts[i].ID == id {
						ts[i].Completed = !ts[i].Completed
					}
				}
				return ts
			})
		}
	case key.Matches(msg, keys.Cycle):
		if d.todoCursor < len(todos) {
			id := todos[d.todoCursor].ID
			d.slots.Todos.Update(func(ts []Todo) []Todo {
				for i := range ts {
					if ts[i].ID == id {
						ts[i].Priority = cyclePriority(ts[i].Priority)
					}
				}
				return ts
			})
		}
	case key.Matches(msg, keys.Add):
		d.slots.Todos.Update(func(ts []Todo) []Todo {
			return append(ts, Todo{ID: uuid.NewString(), Priority: "medium"})
		})
		d.todoCursor = len(todos)
		return d.showTodoForm(d.slots.Todos.Get())
	case key.Matches(msg, keys.Delete):
		if d.todoCursor < len(todos) {
			id := todos[d.todoCursor].ID
			d.slots.Todos.Update(func(ts []Todo) []Todo {
				out := ts[:0]
				for _, t := range ts {
					if t.ID != id {
						out = append(out, t)
					}
				}
				return out
			})
			if d.todoCursor > 0 {
				d.todoCursor--
			}
		}
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		return d.showTodoForm(todos)
	}
	return d, nil
}

func (d dashboardModel) updatePriorities(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	locked := d.slots.PrioritiesLocked.Get()

	switch {
	case key.Matches(msg, keys.Up):
		if d.prioCursor > 0 {
			d.prioCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.prioCursor < 2 {
			d.prioCursor++
		}
	case key.Matches(msg, keys.Lock):
		d.slots.PrioritiesLocked.Set(!locked)
	case key.Matches(msg, keys.Toggle):
		// Completion only counts once the list is committed.
		if locked {
			idx := d.prioCursor
			d.slots.PrioritiesDone.Update(func(done []bool) []bool {
				for len(done) < 3 {
					done = append(done, false)
				}
				done[idx] = !done[idx]
				return done
			})
		}
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if !locked {
			return d.showPriorityForm()
		}
	}
	return d, nil
}

func (d dashboardModel) showTodoForm(todos []Todo) (dashboardModel, tea.Cmd) {
	if d.todoCursor >= len(todos) {
		return d, nil
	}
	t := todos[d.todoCursor]
	*d.formText = t.Text
	d.editingID = t.ID

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(d.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)
	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) showPriorityForm() (dashboardModel, tea.Cmd) {
	prios := d.slots.Priorities.Get()
	*d.formText = ""
	if d.prioCursor < len(prios) {
		*d.formText = prios[d.prioCursor]
	}
	d.editingID = ""
	d.editingIdx = d.prioCursor

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(fmt.Sprintf("Priority #%d", d.prioCursor+1)).Value(d.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)
	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		text := strings.TrimSpace(*d.formText)
		if d.editingID != "" {
			id := d.editingID
			d.slots.Todos.Update(func(ts []Todo) []Todo {
				for i := range ts {
					if ts[i].ID == id {
						ts[i].Text = text
					}
				}
				return ts
			})
		} else {
			idx := d.editingIdx
			d.slots.Priorities.Update(func(ps []string) []string {
				for len(ps) < 3 {
					ps = append(ps, "")
				}
				ps[idx] = text
				return ps
			})
		}
		return d, nil
	}

	return d, cmd
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	if d.formActive && d.form != nil {
		title := titleStyle.Render("Edit")
		return panelStyle.Width(d.width - 4).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View()),
		)
	}

	half := (d.width - 6) / 2
	todos := d.renderTodos(half)
	prios := d.renderPriorities(half)

	return lipgloss.JoinHorizontal(lipgloss.Top, todos, prios)
}

func (d dashboardModel) renderTodos(w int) string {
	todos := d.slots.Todos.Get()

	done := 0
	for _, t := range todos {
		if t.Completed {
			done++
		}
	}
	title := titleStyle.Render("Today's Tasks")
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", done, len(todos)))

	var rows []string
	rows = append(rows, title+counter)
	rows = append(rows, "")

	for i, t := range todos {
		cursor := "  "
		style := normalItemStyle
		if d.pane == paneTodos && i == d.todoCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "☐"
		if t.Completed {
			check = "☑"
			style = doneItemStyle
		}
		text := t.Text
		if text == "" {
			text = mutedStyle.Render("(empty)")
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s", cursor, priorityMark(t.Priority), check, style.Render(text)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("space: done  e: edit  n: add  d: del  p: priority"))

	style := panelStyle
	if d.pane == paneTodos {
		style = activePanelStyle
	}
	return style.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderPriorities(w int) string {
	prios := d.slots.Priorities.Get()
	locked := d.slots.PrioritiesLocked.Get()
	completed := d.slots.PrioritiesDone.Get()

	title := titleStyle.Render("Top 3 Priorities")
	if locked {
		title += successStyle.Render("  🔒")
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i := 0; i < 3; i++ {
		text := ""
		if i < len(prios) {
			text = prios[i]
		}
		isDone := i < len(completed) && completed[i]

		cursor := "  "
		style := normalItemStyle
		if d.pane == panePriorities && i == d.prioCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "☐"
		if isDone {
			check = "☑"
			style = doneItemStyle
		}
		if text == "" {
			text = mutedStyle.Render("(unset)")
		} else {
			text = style.Render(text)
		}
		rows = append(rows, fmt.Sprintf("%s%d. %s %s", cursor, i+1, check, text))
	}

	rows = append(rows, "")
	if locked {
		rows = append(rows, mutedStyle.Render("space: done  L: unlock"))
	} else {
		rows = append(rows, mutedStyle.Render("e: edit  L: lock in"))
	}

	style := panelStyle
	if d.pane == panePriorities {
		style = activePanelStyle
	}
	return style.Width(w).Render(strings.Join(rows, "\n"))
}
