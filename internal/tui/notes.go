package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// notesModel is the brain-dump view. Unlike the trackers this note carries
// over between days.
type notesModel struct {
	slots  *SlotSet
	width  int
	height int

	input   textarea.Model
	editing bool
}

func newNotesModel(slots *SlotSet) notesModel {
	ta := textarea.New()
	ta.Placeholder = "Dump whatever is on your mind..."
	ta.CharLimit = 0
	ta.SetValue(slots.BrainDump.Get())

	return notesModel{
		slots: slots,
		input: ta,
	}
}

func (m *notesModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.input.SetWidth(w - 10)
	if h > 10 {
		m.input.SetHeight(h - 8)
	}
}

// refresh re-reads the slot, picking up a value the cloud fetch or a day
// change replaced underneath the textarea.
func (m *notesModel) refresh() {
	if !m.editing {
		m.input.SetValue(m.slots.BrainDump.Get())
	}
}

func (m notesModel) update(msg tea.Msg) (notesModel, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)

	if m.editing {
		if isKey && key.Matches(keyMsg, keys.Back) {
			m.editing = false
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		// Every keystroke lands in the local store; the cloud write trails
		// behind the debounce.
		m.slots.BrainDump.Set(m.input.Value())
		return m, cmd
	}

	if isKey {
		switch {
		case key.Matches(keyMsg, keys.Edit), key.Matches(keyMsg, keys.Enter):
			m.refresh()
			m.editing = true
			return m, m.input.Focus()
		}
	}
	return m, nil
}

func (m notesModel) view() string {
	w := m.width - 4

	title := titleStyle.Render("Brain Dump")
	note := mutedStyle.Render("persists across days")

	var hint string
	if m.editing {
		hint = mutedStyle.Render("esc: stop editing")
	} else {
		hint = mutedStyle.Render("e: edit")
	}

	style := panelStyle
	if m.editing {
		style = activePanelStyle
	}

	return style.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title+"  "+note,
			"",
			m.input.View(),
			"",
			hint,
		),
	)
}
