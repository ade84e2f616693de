// Package state is the persistence core behind every flowday widget: storage
// key namespacing, the shared day clock, persisted state slots, and the day
// rollover controller. Widgets read and write slots; slots write through to
// the local store immediately and sync to the remote backend on a debounce.
package state

import (
	"context"
	"encoding/json"
	"time"
)

// Namespace prefixes every storage key flowday owns.
const Namespace = "flowday_"

// DayFormat is the layout of the active-day string.
const DayFormat = "2006-01-02"

// ActiveDayKey stores the last-known active day across restarts.
const ActiveDayKey = Namespace + "active_day"

// LocalStore is the synchronous on-device store. Implementations swallow
// their own I/O failures: a read that fails reports absent and a failed
// write is best-effort. See localstore.Adapter.
type LocalStore interface {
	Read(key string) (json.RawMessage, bool)
	Write(key string, value json.RawMessage)
	DeleteMatching(match func(key string) bool)
}

// RemoteStore is the asynchronous cloud key/value store. Errors are returned
// for diagnostics but callers in this package never let them reach a widget.
type RemoteStore interface {
	FetchValue(ctx context.Context, key, userID string) (json.RawMessage, bool, error)
	UpsertValue(ctx context.Context, key string, value json.RawMessage, userID string) error
	DeleteValue(ctx context.Context, key string) error
}

// Archiver freezes a finished day on the backend.
type Archiver interface {
	ArchiveAndResetDay(ctx context.Context, date string) error
	CalculateDailyScore(ctx context.Context, date string) (int, error)
}

// ScoreCache keeps an offline copy of archived day scores for the history
// chart. Implemented by localstore.Store.
type ScoreCache interface {
	PutDayScore(day string, score int) error
}

// UserProvider yields the authenticated user's ID, or "" when anonymous.
// Injected explicitly so the key namespacer never inspects storage.
type UserProvider interface {
	CurrentUserID() string
}

// Timer is a cancel handle for a scheduled function.
type Timer interface {
	Stop() bool
}

// Timekeeper abstracts the wall clock and timer scheduling so debounce and
// rollover behavior are testable without real waits.
type Timekeeper interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemTimekeeper struct{}

func (systemTimekeeper) Now() time.Time { return time.Now() }

func (systemTimekeeper) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemTimekeeper returns the real-time Timekeeper used outside tests.
func SystemTimekeeper() Timekeeper { return systemTimekeeper{} }

// Env bundles the collaborators a slot needs. One Env is shared by every
// widget in the process.
type Env struct {
	Local  LocalStore
	Remote RemoteStore // nil means local-only mode
	Clock  *DayClock
	Users  UserProvider // nil means anonymous
	Time   Timekeeper   // nil means system time
}

func (e Env) timekeeper() Timekeeper {
	if e.Time == nil {
		return systemTimekeeper{}
	}
	return e.Time
}

func (e Env) userID() string {
	if e.Users == nil {
		return ""
	}
	return e.Users.CurrentUserID()
}

// Today formats tk's current time as an active-day string (UTC).
func Today(tk Timekeeper) string {
	if tk == nil {
		tk = systemTimekeeper{}
	}
	return tk.Now().UTC().Format(DayFormat)
}
