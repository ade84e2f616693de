package state

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// ============================================================
// Fakes
// ============================================================

// fakeLocal is an in-memory LocalStore.
type fakeLocal struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{data: make(map[string]string)}
}

func (f *fakeLocal) Read(key string) (json.RawMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok || !json.Valid([]byte(v)) {
		return nil, false
	}
	return json.RawMessage(v), true
}

func (f *fakeLocal) Write(key string, value json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value)
}

func (f *fakeLocal) DeleteMatching(match func(string) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.data {
		if match(k) {
			delete(f.data, k)
		}
	}
}

func (f *fakeLocal) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// fakeRemote is an in-memory RemoteStore that can be told to fail.
type fakeRemote struct {
	mu      sync.Mutex
	data    map[string]string
	fail    bool
	upserts []string // keys, in order
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string]string)}
}

func (f *fakeRemote) FetchValue(_ context.Context, key, userID string) (json.RawMessage, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, false, errors.New("network down")
	}
	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(v), true, nil
}

func (f *fakeRemote) UpsertValue(_ context.Context, key string, value json.RawMessage, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network down")
	}
	f.data[key] = string(value)
	f.upserts = append(f.upserts, key)
	return nil
}

func (f *fakeRemote) DeleteValue(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network down")
	}
	delete(f.data, key)
	return nil
}

func (f *fakeRemote) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeRemote) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// fakeUsers is a settable UserProvider.
type fakeUsers struct {
	mu sync.Mutex
	id string
}

func (f *fakeUsers) CurrentUserID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// fakeTime is a virtual Timekeeper: timers fire only when Advance crosses
// their deadline.
type fakeTime struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	ft      *fakeTime
	when    time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeTime(day string) *fakeTime {
	t, _ := time.Parse(DayFormat, day)
	return &fakeTime{now: t.Add(12 * time.Hour)} // midday
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTime) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{ft: f, when: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.ft.mu.Lock()
	defer t.ft.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// Advance moves virtual time forward, firing due timers outside the lock.
func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	var due []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired && !t.when.After(f.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	f.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// fakeArchiver counts backend archive calls.
type fakeArchiver struct {
	mu       sync.Mutex
	scores   map[string]int
	scored   []string
	archived []string
	fail     bool
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{scores: make(map[string]int)}
}

func (f *fakeArchiver) CalculateDailyScore(_ context.Context, date string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("rpc failed")
	}
	f.scored = append(f.scored, date)
	if s, ok := f.scores[date]; ok {
		return s, nil
	}
	return 50, nil
}

func (f *fakeArchiver) ArchiveAndResetDay(_ context.Context, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("rpc failed")
	}
	f.archived = append(f.archived, date)
	return nil
}

func (f *fakeArchiver) archiveCount(date string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.archived {
		if d == date {
			n++
		}
	}
	return n
}

// fakeScores is an in-memory ScoreCache.
type fakeScores struct {
	mu   sync.Mutex
	data map[string]int
}

func newFakeScores() *fakeScores { return &fakeScores{data: make(map[string]int)} }

func (f *fakeScores) PutDayScore(day string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[day] = score
	return nil
}

// waitFor polls cond until it holds or the deadline passes. Used for the
// slot's fire-and-forget reconcile goroutine.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// testEnv builds an Env around fakes pinned to a known day.
func testEnv(day string) (Env, *fakeLocal, *fakeRemote, *fakeUsers, *fakeTime) {
	local := newFakeLocal()
	remote := newFakeRemote()
	users := &fakeUsers{id: "4f9a1c22-0000-0000-0000-000000000000"}
	ft := newFakeTime(day)
	env := Env{
		Local:  local,
		Remote: remote,
		Clock:  NewDayClockAt(day),
		Users:  users,
		Time:   ft,
	}
	return env, local, remote, users, ft
}
