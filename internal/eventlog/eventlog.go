// Package eventlog is a bounded, append-only, in-memory record of inbound
// webhook payloads. It exists purely for operator visibility: reconciliation
// never consults it, and its contents are lost on restart.
package eventlog

import (
	"crypto/sha256"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one received webhook payload.
type Entry struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`

	digest [32]byte
}

// Log is a thread-safe ring of recent entries. Appends evict the oldest
// entry once capacity is reached.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

// New creates a Log holding at most maxSize entries.
func New(maxSize int) *Log {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Log{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Append records a payload copy under a fresh id and returns the entry.
func (l *Log) Append(topic string, payload []byte) Entry {
	body := make([]byte, len(payload))
	copy(body, payload)

	e := Entry{
		ID:         uuid.NewString(),
		Topic:      topic,
		ReceivedAt: time.Now().UTC(),
		Payload:    body,
		digest:     sha256.Sum256(body),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= l.maxSize {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy of every stored entry in receipt order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// List returns entries deduplicated by payload digest, keeping the first
// receipt of each distinct payload. Deduplication is display-only; every
// delivery is still stored.
func (l *Log) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[[32]byte]bool, len(l.entries))
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if seen[e.digest] {
			continue
		}
		seen[e.digest] = true
		out = append(out, e)
	}
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset discards all entries.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}
