// internal/browser/idle.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// idleTracker counts in-flight network requests for one tab so that
// navigation can wait for quiescence.
type idleTracker struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
	now          func() time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
		now:          time.Now,
	}
}

// listen subscribes the tracker to the tab's network events. Requires network.Enable.
func (t *idleTracker) listen(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, t.handle)
}

func (t *idleTracker) handle(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.started(e.RequestID)
	case *network.EventLoadingFinished:
		t.finished(e.RequestID)
	case *network.EventLoadingFailed:
		t.finished(e.RequestID)
	}
}

func (t *idleTracker) started(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.lastActivity = t.now()
}

func (t *idleTracker) finished(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
	t.lastActivity = t.now()
}

// idleFor reports whether nothing has been in flight for at least quiet.
func (t *idleTracker) idleFor(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.lastActivity) >= quiet
}

// wait polls until the network has been idle for quiet, or ctx is done.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	if quiet <= 0 {
		return nil
	}
	ticker := time.NewTicker(quiet / 2)
	defer ticker.Stop()

	for {
		if t.idleFor(quiet) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
