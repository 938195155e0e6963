package session

import (
	"sync"
	"time"

	"github.com/xkilldash9x/orderlens/internal/config"
)

// DefaultLogCapacity is the number of entries a diagnostic log retains. It is also the ceiling.
const DefaultLogCapacity = config.MaxLogCapacity

// timestampLayout prefixes every diagnostic entry.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DiagLog is a bounded, append-only log. Once full, the oldest entry is evicted.
// Entries live in a fixed ring; start points at the oldest.
type DiagLog struct {
	mu      sync.Mutex
	entries []string
	start   int
	size    int
	now     func() time.Time
}

// NewDiagLog creates a log that keeps at most capacity entries, never more than DefaultLogCapacity.
func NewDiagLog(capacity int) *DiagLog {
	if capacity <= 0 || capacity > DefaultLogCapacity {
		capacity = DefaultLogCapacity
	}
	return &DiagLog{
		entries: make([]string, capacity),
		now:     time.Now,
	}
}

// Append records a timestamp-prefixed message.
func (l *DiagLog) Append(message string) {
	entry := "[" + l.now().UTC().Format(timestampLayout) + "] " + message

	l.mu.Lock()
	defer l.mu.Unlock()

	capacity := len(l.entries)
	if l.size < capacity {
		l.entries[(l.start+l.size)%capacity] = entry
		l.size++
		return
	}
	l.entries[l.start] = entry
	l.start = (l.start + 1) % capacity
}

// Snapshot returns a copy of the retained entries, oldest first.
func (l *DiagLog) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.entries[(l.start+i)%len(l.entries)]
	}
	return out
}

// Len reports the number of retained entries.
func (l *DiagLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}
