package tui

import (
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/flowday/internal/state"
)

const (
	waterGoal     = 8
	sleepGoal     = 8.0
	sleepStep     = 0.5
	defaultSleep  = 7.0
	todoSlotCount = 5
)

// Todo is one row of the daily todo list.
type Todo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority"` // "high", "medium", "low"
}

func defaultTodos() []Todo {
	todos := make([]Todo, todoSlotCount)
	for i := range todos {
		todos[i] = Todo{ID: uuid.NewString(), Priority: "medium"}
	}
	return todos
}

// Meals holds the day's three meal notes.
type Meals struct {
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
}

// moodUnset marks a day without a recorded mood.
const moodUnset = -1

// SlotSet binds every widget's persisted state. All slots except BrainDump
// are day-scoped and reset on rollover.
type SlotSet struct {
	Todos            *state.Slot[[]Todo]
	Priorities       *state.Slot[[]string]
	PrioritiesLocked *state.Slot[bool]
	PrioritiesDone   *state.Slot[[]bool]
	Gratitude        *state.Slot[[]string]
	WaterGlasses     *state.Slot[int]
	SleepHours       *state.Slot[float64]
	Mood             *state.Slot[int] // index into moodNames, moodUnset when unrecorded
	Meals            *state.Slot[Meals]
	PomodoroSessions *state.Slot[int]
	BrainDump        *state.Slot[string]
}

// NewSlotSet activates all widget slots against env. A zero debounce uses
// state.DefaultDebounce.
func NewSlotSet(env state.Env, debounce time.Duration) (*SlotSet, error) {
	set := &SlotSet{}
	var err error

	day := func(key string) state.SlotConfig {
		return state.SlotConfig{Key: key, PerDay: true, Debounce: debounce}
	}

	if set.Todos, err = state.NewSlot(env, day("todos"), defaultTodos()); err != nil {
		return nil, err
	}
	if set.Priorities, err = state.NewSlot(env, day("priorities"), []string{"", "", ""}); err != nil {
		return nil, err
	}
	if set.PrioritiesLocked, err = state.NewSlot(env, day("priorities-locked"), false); err != nil {
		return nil, err
	}
	if set.PrioritiesDone, err = state.NewSlot(env, day("priorities-completed"), []bool{false, false, false}); err != nil {
		return nil, err
	}
	if set.Gratitude, err = state.NewSlot(env, day("gratitude"), []string{"", "", ""}); err != nil {
		return nil, err
	}
	if set.WaterGlasses, err = state.NewSlot(env, day("water-glasses"), 0); err != nil {
		return nil, err
	}
	if set.SleepHours, err = state.NewSlot(env, day("sleep-hours"), defaultSleep); err != nil {
		return nil, err
	}
	if set.Mood, err = state.NewSlot(env, day("mood"), moodUnset); err != nil {
		return nil, err
	}
	if set.Meals, err = state.NewSlot(env, day("meals"), Meals{}); err != nil {
		return nil, err
	}
	if set.PomodoroSessions, err = state.NewSlot(env, day("pomodoro-sessions"), 0); err != nil {
		return nil, err
	}
	if set.BrainDump, err = state.NewSlot(env, state.SlotConfig{Key: "brain-dump", Debounce: debounce}, ""); err != nil {
		return nil, err
	}

	return set, nil
}

// RefreshUser re-keys every slot after a sign-in or sign-out, so widget
// state moves to the new identity's storage keys and its cloud values are
// fetched.
func (s *SlotSet) RefreshUser() {
	s.Todos.RefreshUser()
	s.Priorities.RefreshUser()
	s.PrioritiesLocked.RefreshUser()
	s.PrioritiesDone.RefreshUser()
	s.Gratitude.RefreshUser()
	s.WaterGlasses.RefreshUser()
	s.SleepHours.RefreshUser()
	s.Mood.RefreshUser()
	s.Meals.RefreshUser()
	s.PomodoroSessions.RefreshUser()
	s.BrainDump.RefreshUser()
}

// Close releases all slots, cancelling pending cloud writes.
func (s *SlotSet) Close() {
	s.Todos.Close()
	s.Priorities.Close()
	s.PrioritiesLocked.Close()
	s.PrioritiesDone.Close()
	s.Gratitude.Close()
	s.WaterGlasses.Close()
	s.SleepHours.Close()
	s.Mood.Close()
	s.Meals.Close()
	s.PomodoroSessions.Close()
	s.BrainDump.Close()
}

func cyclePriority(p string) string {
	switch p {
	case "medium":
		return "high"
	case "high":
		return "low"
	default:
		return "medium"
	}
}

func priorityMark(p string) string {
	switch p {
	case "high":
		return errorStyle.Render("!")
	case "low":
		return mutedStyle.Render("·")
	default:
		return warningStyle.Render("-")
	}
}
