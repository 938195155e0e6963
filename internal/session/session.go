package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/internal/browser"
)

// Session is one in-flight login-and-extraction attempt.
//
// Phase calls for the same session are serialized through Acquire/Unlock.
// The browser page is owned exclusively by the session and released exactly once.
type Session struct {
	id        string
	mobile    string
	createdAt time.Time
	log       *DiagLog
	logger    *zap.Logger

	// ctx lives as long as the session. Cancelling it aborts any in-flight browser step.
	ctx    context.Context
	cancel context.CancelFunc

	lastActive atomic.Int64

	mu          sync.Mutex
	page        browser.Page
	otpFailures int
	closed      bool

	releaseOnce sync.Once
}

func newSession(id, mobile string, logCapacity int, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		mobile:    mobile,
		createdAt: time.Now(),
		log:       NewDiagLog(logCapacity),
		logger:    logger.With(zap.String("session_id", id)),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mobile returns the phone number the session was opened for.
func (s *Session) Mobile() string { return s.mobile }

// CreatedAt is informational only.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Context is cancelled when the session is destroyed.
func (s *Session) Context() context.Context { return s.ctx }

// Logf appends a diagnostic entry and mirrors it to the structured logger.
func (s *Session) Logf(message string) {
	s.log.Append(message)
	s.logger.Debug(message)
}

// Diagnostics returns a snapshot of the diagnostic log.
func (s *Session) Diagnostics() []string {
	return s.log.Snapshot()
}

// Acquire takes the per-session phase lock. It returns false, without holding
// the lock, when the session has already been released.
func (s *Session) Acquire() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.touch()
	return true
}

// Unlock releases the phase lock taken by Acquire.
func (s *Session) Unlock() {
	s.touch()
	s.mu.Unlock()
}

// Page returns the browser page. Callers must hold the phase lock.
func (s *Session) Page() browser.Page { return s.page }

// AttachPage hands ownership of a launched page to the session. Callers must hold the phase lock.
func (s *Session) AttachPage(p browser.Page) { s.page = p }

// RecordOTPFailure counts a rejected code and returns the running total. Callers must hold the phase lock.
func (s *Session) RecordOTPFailure() int {
	s.otpFailures++
	return s.otpFailures
}

// expire closes the session if it has been idle since before cutoff and no
// phase holds the lock. Once expired, Acquire fails and only release remains.
func (s *Session) expire(cutoff time.Time) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	if s.closed || !s.idleSince().Before(cutoff) {
		return false
	}
	s.closed = true
	return true
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// release tears down the browser page. It first cancels the session context so
// that a phase holding the lock unwinds promptly, then waits for the lock.
// Failures are logged and swallowed.
func (s *Session) release(ctx context.Context) {
	s.releaseOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true

		page := s.page
		s.page = nil
		if page == nil {
			return
		}

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Panic while releasing browser page.", zap.Any("panic_reason", r))
			}
		}()
		if err := page.Release(ctx); err != nil {
			s.logger.Warn("Browser release failed; continuing.", zap.Error(err))
			s.log.Append("browser release reported an error: " + err.Error())
			return
		}
		s.log.Append("browser released")
	})
}
