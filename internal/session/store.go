package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSessionExists is returned when an id is already bound to a live session.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotFound is returned when an id has no live session.
	ErrSessionNotFound = errors.New("session not found or expired")
)

// Store is the in-memory registry of live sessions. It is safe for concurrent use.
type Store struct {
	logger        *zap.Logger
	sessionLogger *zap.Logger
	logCapacity   int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store. logCapacity bounds every session's diagnostic log.
func NewStore(logger *zap.Logger, logCapacity int) *Store {
	if logCapacity <= 0 {
		logCapacity = DefaultLogCapacity
	}
	return &Store{
		logger:        logger.Named("store"),
		sessionLogger: logger.Named("session"),
		logCapacity:   logCapacity,
		sessions:      make(map[string]*Session),
	}
}

// Create registers a new session. It never replaces a live session.
func (st *Store) Create(id, mobile string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	s := newSession(id, mobile, st.logCapacity, st.sessionLogger)
	st.sessions[id] = s
	st.logger.Debug("Session created.", zap.String("session_id", id))
	return s, nil
}

// Get returns the live session for id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Acquire looks up id and takes its phase lock. The caller must Unlock the returned session.
func (st *Store) Acquire(id string) (*Session, error) {
	s, ok := st.Get(id)
	if !ok || !s.Acquire() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Destroy removes the session and releases its browser resources. It reports
// whether this call performed the removal; absent ids are a no-op. Release
// failures are logged, never returned.
func (st *Store) Destroy(ctx context.Context, id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if !ok {
		return false
	}
	s.release(ctx)
	st.logger.Debug("Session destroyed.", zap.String("session_id", id))
	return true
}

// AppendLog adds a diagnostic entry to the named session. Absent sessions are ignored.
func (st *Store) AppendLog(id, message string) {
	if s, ok := st.Get(id); ok {
		s.Logf(message)
	}
}

// ReadLog returns a snapshot of the named session's diagnostic log, or an empty slice.
func (st *Store) ReadLog(id string) []string {
	if s, ok := st.Get(id); ok {
		return s.Diagnostics()
	}
	return []string{}
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) ids() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Drain destroys every live session in parallel. It returns ctx.Err() if the
// deadline passes before all releases finish.
func (st *Store) Drain(ctx context.Context) error {
	ids := st.ids()
	if len(ids) == 0 {
		return nil
	}
	st.logger.Info("Draining live sessions.", zap.Int("count", len(ids)))

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			st.Destroy(ctx, id)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		st.logger.Warn("Deadline exceeded while draining sessions.", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Reap destroys sessions that have been idle for longer than idle.
// Sessions with a phase currently running are skipped. The idle check and the
// close happen under the phase lock, so a phase that resumes first keeps its session.
func (st *Store) Reap(ctx context.Context, idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	reaped := 0
	for _, id := range st.ids() {
		s, ok := st.Get(id)
		if !ok || !s.expire(cutoff) {
			continue
		}

		s.Logf("session expired after idle timeout")
		if st.Destroy(ctx, id) {
			reaped++
		}
	}
	if reaped > 0 {
		st.logger.Info("Reaped idle sessions.", zap.Int("count", reaped))
	}
	return reaped
}

// RunReaper calls Reap every interval until ctx is cancelled.
func (st *Store) RunReaper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			st.Reap(releaseCtx, idle)
			cancel()
		}
	}
}
