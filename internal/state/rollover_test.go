package state

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestRollover(day string) (*Rollover, *fakeLocal, *fakeArchiver, *fakeScores, *fakeTime, *DayClock) {
	local := newFakeLocal()
	arch := newFakeArchiver()
	scores := newFakeScores()
	ft := newFakeTime(day)
	clock := NewDayClockAt(day)
	r := NewRollover(RolloverConfig{
		Clock:    clock,
		Local:    local,
		Archiver: arch,
		Scores:   scores,
		Time:     ft,
	})
	return r, local, arch, scores, ft, clock
}

// ============================================================
// Automatic detection
// ============================================================

func TestCheckNowNoopSameDay(t *testing.T) {
	r, _, arch, _, _, clock := newTestRollover("2024-03-01")

	if r.CheckNow() {
		t.Fatal("no rollover expected while the day matches")
	}
	if len(arch.scored) != 0 {
		t.Fatal("no RPC expected")
	}
	if clock.Day() != "2024-03-01" {
		t.Fatalf("Day = %q", clock.Day())
	}
}

func TestCheckNowRollsOverAtMidnight(t *testing.T) {
	r, local, arch, scores, ft, clock := newTestRollover("2024-03-01")
	arch.scores["2024-03-01"] = 85

	var freshStart string
	r.OnFreshStart = func(day string) { freshStart = day }

	ft.Advance(24 * time.Hour) // past midnight

	if !r.CheckNow() {
		t.Fatal("expected a rollover")
	}
	if clock.Day() != "2024-03-02" {
		t.Fatalf("Day = %q", clock.Day())
	}
	if freshStart != "2024-03-02" {
		t.Fatalf("fresh-start notification = %q", freshStart)
	}
	if len(arch.scored) != 1 || arch.scored[0] != "2024-03-01" {
		t.Fatalf("scored = %v", arch.scored)
	}
	if scores.data["2024-03-01"] != 85 {
		t.Fatalf("cached score = %d", scores.data["2024-03-01"])
	}
	if day, _ := local.get(ActiveDayKey); day != `"2024-03-02"` {
		t.Fatalf("recorded active day = %q", day)
	}
}

func TestCheckNowNotifiesSubscribedSlots(t *testing.T) {
	r, local, _, _, ft, clock := newTestRollover("2024-03-01")

	env := Env{Local: local, Clock: clock, Time: ft}
	s := MustSlot(env, SlotConfig{Key: "water-glasses", PerDay: true}, 0)
	defer s.Close()
	s.Set(3)

	ft.Advance(24 * time.Hour)
	r.CheckNow()

	if got := s.Get(); got != 0 {
		t.Fatalf("slot value after rollover = %d, want default", got)
	}
}

func TestCheckNowKeepsOutgoingDayLocalData(t *testing.T) {
	r, local, _, _, ft, clock := newTestRollover("2024-03-01")
	local.Write("flowday_todos_2024-03-01", json.RawMessage(`[{"text":"a","done":false}]`))
	local.Write("flowday_water-glasses_2024-03-01", json.RawMessage(`4`))

	ft.Advance(24 * time.Hour)
	if !r.CheckNow() {
		t.Fatal("expected a rollover")
	}
	if clock.Day() != "2024-03-02" {
		t.Fatalf("Day = %q", clock.Day())
	}
	// Only the manual reset purges; the midnight tick leaves yesterday's
	// records on disk for a local-only user.
	if _, ok := local.get("flowday_todos_2024-03-01"); !ok {
		t.Fatal("automatic rollover must not purge local keys")
	}
	if _, ok := local.get("flowday_water-glasses_2024-03-01"); !ok {
		t.Fatal("automatic rollover must not purge local keys")
	}
}

func TestCheckNowScoreFailureStillAdvances(t *testing.T) {
	r, _, arch, _, ft, clock := newTestRollover("2024-03-01")
	arch.fail = true

	ft.Advance(24 * time.Hour)
	if !r.CheckNow() {
		t.Fatal("rollover must not be blocked by a failed archive")
	}
	if clock.Day() != "2024-03-02" {
		t.Fatalf("Day = %q", clock.Day())
	}
}

func TestCheckNowIdempotent(t *testing.T) {
	r, _, arch, _, ft, _ := newTestRollover("2024-03-01")

	ft.Advance(24 * time.Hour)
	if !r.CheckNow() {
		t.Fatal("first check should roll over")
	}
	if r.CheckNow() {
		t.Fatal("second check should be a no-op")
	}
	if len(arch.scored) != 1 {
		t.Fatalf("scored %d times", len(arch.scored))
	}
}

// ============================================================
// Manual start-new-day
// ============================================================

func TestStartNewDayArchivesAndPurges(t *testing.T) {
	r, local, arch, _, _, clock := newTestRollover("2024-03-01")
	local.Write("flowday_todos_2024-03-01", json.RawMessage(`[{"text":"a","done":true}]`))
	local.Write("flowday_todos_2024-02-29", json.RawMessage(`[]`))
	local.Write("flowday_brain-dump", json.RawMessage(`"keep"`))

	if !r.StartNewDay() {
		t.Fatal("expected success")
	}
	if arch.archiveCount("2024-03-01") != 1 {
		t.Fatalf("archive calls = %d", arch.archiveCount("2024-03-01"))
	}
	if _, ok := local.get("flowday_todos_2024-03-01"); ok {
		t.Fatal("outgoing day's keys should be purged")
	}
	if _, ok := local.get("flowday_todos_2024-02-29"); !ok {
		t.Fatal("older days are left alone")
	}
	if _, ok := local.get("flowday_brain-dump"); !ok {
		t.Fatal("non-day keys are left alone")
	}
	if clock.Day() != "2024-03-01" {
		t.Fatalf("Day = %q, manual reset on the same calendar day keeps today", clock.Day())
	}
}

func TestStartNewDayTwiceDoesNotDoubleArchive(t *testing.T) {
	r, _, arch, _, _, _ := newTestRollover("2024-03-01")

	if !r.StartNewDay() {
		t.Fatal("first call should succeed")
	}
	if !r.StartNewDay() {
		t.Fatal("second call should succeed trivially")
	}
	if arch.archiveCount("2024-03-01") != 1 {
		t.Fatalf("archived %d times, want 1", arch.archiveCount("2024-03-01"))
	}
}

func TestStartNewDayAcrossMidnightAdvancesClock(t *testing.T) {
	r, _, _, _, ft, clock := newTestRollover("2024-03-01")

	ft.Advance(24 * time.Hour)
	r.StartNewDay()

	if clock.Day() != "2024-03-02" {
		t.Fatalf("Day = %q", clock.Day())
	}
}

func TestStartNewDayArchiveFailureReported(t *testing.T) {
	r, local, arch, _, _, _ := newTestRollover("2024-03-01")
	arch.fail = true
	local.Write("flowday_todos_2024-03-01", json.RawMessage(`[]`))

	if r.StartNewDay() {
		t.Fatal("expected failure to be reported")
	}
	// The local reset still happens: the user is never trapped in yesterday.
	if _, ok := local.get("flowday_todos_2024-03-01"); ok {
		t.Fatal("purge should run despite the failed archive")
	}
}

func TestStartNewDayWithoutArchiver(t *testing.T) {
	local := newFakeLocal()
	clock := NewDayClockAt("2024-03-01")
	r := NewRollover(RolloverConfig{Clock: clock, Local: local, Time: newFakeTime("2024-03-01")})

	if !r.StartNewDay() {
		t.Fatal("local-only mode reports trivial success")
	}
}

// ============================================================
// Active-day bookkeeping
// ============================================================

func TestLastActiveDay(t *testing.T) {
	local := newFakeLocal()
	if LastActiveDay(local) != "" {
		t.Fatal("expected empty with nothing recorded")
	}

	local.Write(ActiveDayKey, json.RawMessage(`"2024-03-01"`))
	if got := LastActiveDay(local); got != "2024-03-01" {
		t.Fatalf("LastActiveDay = %q", got)
	}

	local.Write(ActiveDayKey, json.RawMessage(`{"not":"a day"}`))
	if LastActiveDay(local) != "" {
		t.Fatal("malformed record reads as empty")
	}
}

func TestRolloverStartStop(t *testing.T) {
	r, _, _, _, _, _ := newTestRollover("2024-03-01")
	r.Start()
	r.Stop()
	r.Stop() // idempotent
}
