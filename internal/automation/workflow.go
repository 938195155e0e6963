// Package automation drives the login, one-time-password and order
// extraction phases against per-session browser instances.
package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/api/schemas"
	"github.com/xkilldash9x/orderlens/internal/browser"
	"github.com/xkilldash9x/orderlens/internal/config"
	"github.com/xkilldash9x/orderlens/internal/session"
)

const releaseTimeout = 15 * time.Second

// Workflow is the entry point for every phase. Each phase is a failure
// boundary: errors are reported in the result, never returned.
type Workflow struct {
	store    *session.Store
	launcher browser.Launcher
	target   config.TargetConfig
	timing   config.AutomationConfig
	logger   *zap.Logger

	newID func() string
}

// NewWorkflow wires a workflow to its session store and browser launcher.
func NewWorkflow(store *session.Store, launcher browser.Launcher, cfg *config.Config, logger *zap.Logger) *Workflow {
	return &Workflow{
		store:    store,
		launcher: launcher,
		target:   cfg.Target,
		timing:   cfg.Automation,
		logger:   logger.Named("workflow"),
		newID:    uuid.NewString,
	}
}

// Cancel destroys the session if it exists. It always succeeds.
func (w *Workflow) Cancel(ctx context.Context, sessionID string) schemas.CancelResult {
	if w.destroy(ctx, sessionID) {
		w.logger.Info("Session cancelled.", zap.String("session_id", sessionID))
	}
	return schemas.CancelResult{Success: true}
}

// Shutdown destroys every live session, bounded by ctx.
func (w *Workflow) Shutdown(ctx context.Context) error {
	return w.store.Drain(ctx)
}

// RunReaper expires idle sessions until ctx is cancelled.
func (w *Workflow) RunReaper(ctx context.Context) {
	w.store.RunReaper(ctx, w.timing.ReaperInterval, w.timing.SessionIdleTimeout)
}

// phaseContext is cancelled when either the request or the session ends.
func (w *Workflow) phaseContext(ctx context.Context, s *session.Session) (context.Context, context.CancelFunc) {
	return browser.CombineContext(s.Context(), ctx)
}

// runPhase runs step under the session lock, which the caller already holds,
// and always gives the lock back. A panic in step is returned as BROWSER_FAILURE.
func (w *Workflow) runPhase(ctx context.Context, s *session.Session, step func(context.Context) error) (err error) {
	phaseCtx, cancel := w.phaseContext(ctx, s)
	defer cancel()
	defer s.Unlock()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Recovered from panic in phase.",
				zap.String("session_id", s.ID()),
				zap.Any("panic_reason", r),
				zap.Stack("stack"),
			)
			err = &Error{Code: ErrCodeBrowser, Message: fmt.Sprintf("browser step panicked: %v", r)}
		}
	}()
	return step(phaseCtx)
}

// destroy releases a session on a context detached from the request, so an
// abandoned request still closes the browser.
func (w *Workflow) destroy(ctx context.Context, sessionID string) bool {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	return w.store.Destroy(releaseCtx, sessionID)
}

// pause waits for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// maskMobile keeps only the last four digits for logs.
func maskMobile(mobile string) string {
	r := []rune(mobile)
	if len(r) <= 4 {
		return "****"
	}
	for i := 0; i < len(r)-4; i++ {
		r[i] = '*'
	}
	return string(r)
}

// preview returns at most n characters of text.
func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
