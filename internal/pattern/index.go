package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// Per-key record count that triggers an inline maintenance sweep.
	maintenanceThreshold = 100
	// Retention applied by the inline maintenance sweep.
	maintenanceRetention = 30 * time.Minute
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Record is one observed posting of a fingerprinted message.
type Record struct {
	ChannelID   string
	Timestamp   time.Time
	Fingerprint string
}

type key struct {
	userID      string
	fingerprint string
}

// entry holds the per-key record list. The list is guarded by its own mutex
// so concurrent messages for the same (user, content) pair serialize without
// contending with other keys.
type entry struct {
	mu      sync.Mutex
	records []Record
}

// Index correlates repeated message content per user across channels.
type Index struct {
	mu      sync.RWMutex
	entries map[key]*entry
	clock   Clock
}

func NewIndex() *Index {
	return &Index{
		entries: make(map[key]*entry),
		clock:   realClock{},
	}
}

func (ix *Index) WithClock(clock Clock) {
	ix.clock = clock
}

// Fingerprint hashes message content to a fixed-width hex digest. Colliding
// content is treated as identical, which is acceptable at chat-message scale.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Record stores a message posting under (userID, fingerprint) and returns the
// fingerprint. Blank input is ignored. Crossing the per-key maintenance
// threshold triggers an inline sweep of the whole index.
func (ix *Index) Record(userID, channelID, content string) string {
	if userID == "" || channelID == "" || content == "" {
		return ""
	}

	fingerprint := Fingerprint(content)
	e := ix.entryFor(key{userID: userID, fingerprint: fingerprint})

	e.mu.Lock()
	e.records = append(e.records, Record{
		ChannelID:   channelID,
		Timestamp:   ix.clock.Now(),
		Fingerprint: fingerprint,
	})
	size := len(e.records)
	e.mu.Unlock()

	if size > maintenanceThreshold {
		ix.EvictOlderThan(maintenanceRetention)
	}
	return fingerprint
}

// IsMultiChannelSpam reports whether the user posted this content in at least
// channelThreshold distinct channels within the window. The list-length check
// short-circuits the common low-frequency case before any filtering.
func (ix *Index) IsMultiChannelSpam(userID, fingerprint string, channelThreshold int, window time.Duration) bool {
	if userID == "" || fingerprint == "" || channelThreshold <= 0 {
		return false
	}

	ix.mu.RLock()
	e := ix.entries[key{userID: userID, fingerprint: fingerprint}]
	ix.mu.RUnlock()
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.records) < channelThreshold {
		return false
	}

	cutoff := ix.clock.Now().Add(-window)
	channels := make(map[string]struct{})
	for _, record := range e.records {
		if record.Timestamp.Before(cutoff) {
			continue
		}
		channels[record.ChannelID] = struct{}{}
	}
	return len(channels) >= channelThreshold
}

// EvictOlderThan drops records older than maxAge and removes keys whose lists
// become empty. Different keys are swept without a global write lock so
// inserts on other keys keep flowing.
func (ix *Index) EvictOlderThan(maxAge time.Duration) {
	cutoff := ix.clock.Now().Add(-maxAge)

	ix.mu.RLock()
	snapshot := make(map[key]*entry, len(ix.entries))
	for k, e := range ix.entries {
		snapshot[k] = e
	}
	ix.mu.RUnlock()

	var empty []key
	for k, e := range snapshot {
		e.mu.Lock()
		kept := e.records[:0]
		for _, record := range e.records {
			if !record.Timestamp.Before(cutoff) {
				kept = append(kept, record)
			}
		}
		e.records = kept
		if len(kept) == 0 {
			empty = append(empty, k)
		}
		e.mu.Unlock()
	}

	if len(empty) == 0 {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, k := range empty {
		e := ix.entries[k]
		if e == nil {
			continue
		}
		e.mu.Lock()
		if len(e.records) == 0 {
			delete(ix.entries, k)
		}
		e.mu.Unlock()
	}
}

// Keys reports how many (user, fingerprint) pairs are currently tracked.
func (ix *Index) Keys() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

func (ix *Index) entryFor(k key) *entry {
	ix.mu.RLock()
	e := ix.entries[k]
	ix.mu.RUnlock()
	if e != nil {
		return e
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if e = ix.entries[k]; e == nil {
		e = &entry{}
		ix.entries[k] = e
	}
	return e
}
