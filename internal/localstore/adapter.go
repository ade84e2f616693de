package localstore

import (
	"encoding/json"
	"log"
)

// Adapter exposes the store through the slot contract: reads that fail or
// find nothing report absent, writes are best-effort. A database error must
// never reach widget code, only the default-value path.
type Adapter struct {
	store *Store
}

func NewAdapter(s *Store) *Adapter {
	return &Adapter{store: s}
}

// Read returns the stored JSON for key, or absent on any miss, corruption,
// or database error.
func (a *Adapter) Read(key string) (json.RawMessage, bool) {
	raw, err := a.store.GetValue(key)
	if err != nil {
		return nil, false
	}
	if !json.Valid([]byte(raw)) {
		return nil, false
	}
	return json.RawMessage(raw), true
}

// Write stores value under key. Failures are logged and swallowed.
func (a *Adapter) Write(key string, value json.RawMessage) {
	if err := a.store.SetValue(key, string(value)); err != nil {
		log.Printf("localstore: write %s: %v", key, err)
	}
}

// DeleteMatching removes every key the predicate selects.
func (a *Adapter) DeleteMatching(match func(key string) bool) {
	keys, err := a.store.Keys()
	if err != nil {
		log.Printf("localstore: list keys: %v", err)
		return
	}
	for _, k := range keys {
		if !match(k) {
			continue
		}
		if err := a.store.DeleteValue(k); err != nil {
			log.Printf("localstore: delete %s: %v", k, err)
		}
	}
}
