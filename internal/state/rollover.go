package state

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"
)

// Rollover detects day boundaries and runs the archive-and-advance
// sequence. Two triggers feed it: a background poll comparing wall clock to
// the day clock, and the user's explicit "start new day" action. Both
// funnel through the same guard so a day is never archived twice.
type Rollover struct {
	clock    *DayClock
	local    LocalStore
	archiver Archiver   // nil in local-only mode
	scores   ScoreCache // nil disables the offline score cache
	tk       Timekeeper
	interval time.Duration

	// OnFreshStart runs after an automatic rollover, outside any lock. The
	// UI shows its fresh-start toast from here.
	OnFreshStart func(newDay string)

	mu           sync.Mutex
	lastArchived string
	stop         chan struct{}
	stopOnce     sync.Once
}

// RolloverConfig wires a Rollover. Interval zero means a 60s poll.
type RolloverConfig struct {
	Clock    *DayClock
	Local    LocalStore
	Archiver Archiver
	Scores   ScoreCache
	Time     Timekeeper
	Interval time.Duration
}

func NewRollover(cfg RolloverConfig) *Rollover {
	tk := cfg.Time
	if tk == nil {
		tk = SystemTimekeeper()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Rollover{
		clock:    cfg.Clock,
		local:    cfg.Local,
		archiver: cfg.Archiver,
		scores:   cfg.Scores,
		tk:       tk,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the background poll until Stop. The first check happens
// immediately, so a day boundary crossed while the app was closed is
// handled at launch.
func (r *Rollover) Start() {
	go func() {
		r.CheckNow()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.CheckNow()
			case <-r.stop:
				return
			}
		}
	}()
}

func (r *Rollover) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// CheckNow compares the wall-clock date to the active day and rolls over on
// mismatch: score the outgoing day, advance the clock (fanning out to every
// slot), and fire OnFreshStart. Returns whether a rollover happened.
func (r *Rollover) CheckNow() bool {
	today := Today(r.tk)
	outgoing := r.clock.Day()
	if today == outgoing {
		return false
	}

	r.archiveOnce(outgoing, false)
	// The automatic trigger only advances the day; it never purges local
	// keys, so a local-only user keeps yesterday's data on disk.
	r.finish(outgoing, today, false)

	if r.OnFreshStart != nil {
		r.OnFreshStart(today)
	}
	return true
}

// StartNewDay is the manual trigger: archive and clear the current day on
// the backend, purge its local keys, and advance the clock to today.
// Reports whether the remote archive succeeded; a failed archive never
// blocks the new day locally.
func (r *Rollover) StartNewDay() bool {
	outgoing := r.clock.Day()
	ok := r.archiveOnce(outgoing, true)
	r.finish(outgoing, Today(r.tk), true)
	return ok
}

// archiveOnce runs the remote archive for a day at most once per process.
// The backend RPCs are idempotent by date; this guard just keeps the two
// triggers from racing each other over the same outgoing day.
func (r *Rollover) archiveOnce(day string, reset bool) bool {
	r.mu.Lock()
	if r.lastArchived == day {
		r.mu.Unlock()
		return true
	}
	r.lastArchived = day
	r.mu.Unlock()

	if r.archiver == nil {
		return true
	}

	ctx := context.Background()
	ok := true
	score, err := r.archiver.CalculateDailyScore(ctx, day)
	if err != nil {
		log.Printf("rollover: score %s: %v", day, err)
		ok = false
	} else if r.scores != nil {
		if err := r.scores.PutDayScore(day, score); err != nil {
			log.Printf("rollover: cache score %s: %v", day, err)
		}
	}

	if reset {
		if err := r.archiver.ArchiveAndResetDay(ctx, day); err != nil {
			log.Printf("rollover: archive %s: %v", day, err)
			ok = false
		}
	}
	return ok
}

// finish advances the day clock and records the new active day. Only the
// manual flow purges the outgoing day's local keys (it archived them on the
// backend first); the purge runs before Set so no slot can re-read leftover
// data while switching keys.
func (r *Rollover) finish(outgoing, newDay string, purge bool) {
	if purge {
		r.local.DeleteMatching(func(k string) bool {
			return strings.HasPrefix(k, Namespace) && strings.Contains(k, outgoing)
		})
	}
	r.clock.Set(newDay)
	if raw, err := json.Marshal(newDay); err == nil {
		r.local.Write(ActiveDayKey, raw)
	}
}

// LastActiveDay reads the recorded active day from the local store, or ""
// when none was saved. main seeds the day clock with it so a missed
// boundary is archived by the first poll.
func LastActiveDay(local LocalStore) string {
	raw, ok := local.Read(ActiveDayKey)
	if !ok {
		return ""
	}
	var day string
	if err := json.Unmarshal(raw, &day); err != nil {
		return ""
	}
	return day
}
