// internal/browser/context_utils.go
package browser

import (
	"context"
)

// CombineContext returns a context derived from primary, so it carries the CDP
// target values, that is also cancelled when secondary is done.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
