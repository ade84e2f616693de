package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultDebounce is the delay before a changed value is pushed to the
// remote store when SlotConfig.Debounce is zero.
const DefaultDebounce = time.Second

// SlotConfig identifies one piece of persisted widget state.
type SlotConfig struct {
	// Key is the logical identifier, e.g. "todos" or "water-glasses".
	Key string
	// PerDay embeds the active day in the storage key; the value resets to
	// the default whenever the day changes.
	PerDay bool
	// Debounce is the quiet period before a remote write. Zero means
	// DefaultDebounce.
	Debounce time.Duration
}

func (c SlotConfig) validate() error {
	if c.Key == "" {
		return fmt.Errorf("slot: empty key")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("slot %q: negative debounce", c.Key)
	}
	return nil
}

// Slot is one bound unit of persisted UI state. Reads and writes hit memory
// and the local store synchronously; remote writes trail on a debounce. A
// slot never surfaces an I/O error: it always holds some valid value.
type Slot[T any] struct {
	env    Env
	cfg    SlotConfig
	defRaw json.RawMessage

	mu     sync.Mutex
	day    string
	user   string // user ID baked into key; remote writes carry this, never the live one
	key    string
	value  T
	timer  Timer
	gen    int // bumped on day change, user change, and close; stale async work checks it
	closed bool
	unsub  func()
}

// NewSlot activates a slot: it loads the current value from the local store
// (default when absent or corrupt), subscribes to day changes when
// day-scoped, and kicks off a background fetch from the remote store. A
// present cloud value overwrites both memory and the local store.
func NewSlot[T any](env Env, cfg SlotConfig, defaultValue T) (*Slot[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if env.Clock == nil {
		return nil, fmt.Errorf("slot %q: nil day clock", cfg.Key)
	}
	defRaw, err := json.Marshal(defaultValue)
	if err != nil {
		return nil, fmt.Errorf("slot %q: marshal default: %w", cfg.Key, err)
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}

	s := &Slot[T]{env: env, cfg: cfg, defRaw: defRaw}
	s.day = env.Clock.Day()
	s.user = env.userID()
	s.key = StorageKey(cfg.Key, cfg.PerDay, s.day, s.user)
	s.value = s.load(s.key)

	if cfg.PerDay {
		s.unsub = env.Clock.Subscribe(s.onDayChange)
	}

	go s.reconcile(s.gen, s.key, s.user)
	return s, nil
}

// MustSlot is NewSlot for statically-known configs, panicking on the
// construction errors that would mean a programming bug.
func MustSlot[T any](env Env, cfg SlotConfig, defaultValue T) *Slot[T] {
	s, err := NewSlot(env, cfg, defaultValue)
	if err != nil {
		panic(err)
	}
	return s
}

// Key returns the storage key the slot currently reads and writes.
func (s *Slot[T]) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Get returns the in-memory value.
func (s *Slot[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set updates the in-memory value, writes through to the local store, and
// (re)starts the debounce toward the remote store. Rapid calls within the
// debounce window coalesce into one remote write carrying the last value.
func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.value = v

	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("state: marshal %s: %v", s.key, err)
		return
	}
	s.env.Local.Write(s.key, raw)
	s.scheduleUpsertLocked(raw)
}

// Update applies fn to the current value and stores the result.
func (s *Slot[T]) Update(fn func(T) T) {
	s.Set(fn(s.Get()))
}

// Close deactivates the slot: it stops listening for day changes and
// cancels any pending remote write. The last local write is already
// durable.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// scheduleUpsertLocked restarts the debounce timer. Key, owner, and
// generation are captured now so a fire after a day change, a user change,
// or close is discarded and can never pair one identity's key with
// another's user ID.
func (s *Slot[T]) scheduleUpsertLocked(raw json.RawMessage) {
	userID := s.user
	if s.env.Remote == nil || userID == "" {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	key, gen := s.key, s.gen
	s.timer = s.env.timekeeper().AfterFunc(s.cfg.Debounce, func() {
		s.mu.Lock()
		stale := s.closed || s.gen != gen
		s.mu.Unlock()
		if stale {
			return
		}
		if err := s.env.Remote.UpsertValue(context.Background(), key, raw, userID); err != nil {
			log.Printf("state: cloud sync failed for %s: %v", key, err)
		}
	})
}

// onDayChange switches a per-day slot to the new day's key: cancel the old
// day's pending remote write, re-read the local store under the new key
// (typically absent, so the default), then reconcile against the cloud.
func (s *Slot[T]) onDayChange(newDay string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	gen, key, userID := s.rekeyLocked(newDay)
	s.mu.Unlock()

	go s.reconcile(gen, key, userID)
}

// RefreshUser re-keys the slot after the signed-in identity changed (login,
// logout). The pending write under the old identity's key is cancelled, the
// local store is re-read under the new key, and the new identity's cloud
// value is fetched. A no-op when the user is unchanged.
func (s *Slot[T]) RefreshUser() {
	s.mu.Lock()
	if s.closed || s.env.userID() == s.user {
		s.mu.Unlock()
		return
	}
	gen, key, userID := s.rekeyLocked(s.day)
	s.mu.Unlock()

	go s.reconcile(gen, key, userID)
}

// rekeyLocked moves the slot to the storage key for day and the current
// user, invalidating any in-flight timer or fetch tied to the old key.
func (s *Slot[T]) rekeyLocked(day string) (gen int, key, userID string) {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.day = day
	s.user = s.env.userID()
	s.key = StorageKey(s.cfg.Key, s.cfg.PerDay, day, s.user)
	s.value = s.load(s.key)
	return s.gen, s.key, s.user
}

// load reads key from the local store, falling back to a fresh copy of the
// default on absence or decode failure.
func (s *Slot[T]) load(key string) T {
	if raw, ok := s.env.Local.Read(key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	var def T
	// defRaw marshaled successfully at construction, so this cannot fail.
	json.Unmarshal(s.defRaw, &def)
	return def
}

// reconcile is the fire-and-forget fetch at activation (and after a day
// change): when the cloud holds a value for the key, it wins over whatever
// the local store had. Results arriving after the key moved on are dropped.
func (s *Slot[T]) reconcile(gen int, key, userID string) {
	if s.env.Remote == nil || userID == "" {
		return
	}
	raw, ok, err := s.env.Remote.FetchValue(context.Background(), key, userID)
	if err != nil || !ok {
		return
	}
	var v T
	if jsonErr := json.Unmarshal(raw, &v); jsonErr != nil {
		log.Printf("state: bad cloud value for %s: %v", key, jsonErr)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return
	}
	s.value = v
	s.env.Local.Write(key, raw)
}
