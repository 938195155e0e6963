// internal/browser/page.go
package browser

import (
	"context"
	"fmt"
	"time"
)

// Page is one automated browser instance with a single tab. The browser and
// the tab are created together by a Launcher and released together.
type Page interface {
	// Navigate loads url and waits for network quiescence, bounded by timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// URL returns the current document location.
	URL(ctx context.Context) (string, error)
	// Text returns the rendered text of the document body.
	Text(ctx context.Context) (string, error)
	// Find evaluates the chain's strategies in order and returns the first that matches an element.
	Find(ctx context.Context, chain Chain) (Strategy, bool, error)
	// Click clicks the first element matched by s.
	Click(ctx context.Context, s Strategy) error
	// Fill replaces the value of the input matched by s by typing value into it.
	Fill(ctx context.Context, s Strategy, value string) error
	// ScrollToBottom scrolls the window to the end of the document.
	ScrollToBottom(ctx context.Context) error
	// TextsOf returns the rendered text of every element matching the CSS selector.
	TextsOf(ctx context.Context, css string) ([]string, error)
	// Release closes the browser. Safe to call more than once.
	Release(ctx context.Context) error
}

// Launcher starts browser instances.
type Launcher interface {
	Launch(ctx context.Context) (Page, error)
}

// LaunchError reports that the browser process could not be started.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("browser launch failed: %v", e.Err) }
func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError reports a navigation timeout or network failure.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}
func (e *NavigationError) Unwrap() error { return e.Err }
