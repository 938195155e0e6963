// internal/browser/controller.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/internal/config"
)

const (
	defaultLaunchTimeout = 30 * time.Second
	defaultActionTimeout = 10 * time.Second
	releaseGracePeriod   = 10 * time.Second
)

// Controller launches one dedicated browser process per Page.
type Controller struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

var _ Launcher = (*Controller)(nil)

// NewController creates a Controller. Nothing is started until Launch.
func NewController(cfg config.BrowserConfig, logger *zap.Logger) *Controller {
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = defaultLaunchTimeout
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	return &Controller{cfg: cfg, logger: logger.Named("browser")}
}

// Launch starts a headless browser with one browsing context and one tab.
// The process lifetime is independent of ctx; ctx only bounds the start-up.
func (c *Controller) Launch(ctx context.Context) (Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), DefaultAllocatorOptions(c.cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	p := &cdpPage{
		tabCtx:        tabCtx,
		tabCancel:     tabCancel,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		tracker:       newIdleTracker(),
		actionTimeout: c.cfg.ActionTimeout,
		idleQuiet:     c.cfg.NetworkIdleQuiet,
		logger:        c.logger,
	}

	// The first Run on the tab context allocates the browser. It must use the
	// tab context itself, so the start-up deadline is enforced from outside.
	persona := DefaultPersona
	persona.UserAgent = c.cfg.UserAgent

	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(tabCtx, network.Enable(), persona.apply(c.logger))
	}()

	timer := time.NewTimer(c.cfg.LaunchTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-started:
	case <-timer.C:
		err = fmt.Errorf("browser did not start within %s", c.cfg.LaunchTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, &LaunchError{Err: err}
	}

	p.tracker.listen(tabCtx)
	c.logger.Debug("Browser launched.")
	return p, nil
}

// cdpPage drives a single tab over the DevTools protocol.
type cdpPage struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tracker     *idleTracker

	actionTimeout time.Duration
	idleQuiet     time.Duration
	logger        *zap.Logger

	releaseOnce sync.Once
	releaseErr  error
}

// run executes actions against the tab, honouring both the tab lifetime and ctx.
func (p *cdpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(p.tabCtx, ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	return chromedp.Run(runCtx, actions...)
}

func (p *cdpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.run(navCtx, 0, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NavigationError{URL: url, Err: err}
	}
	if err := p.tracker.wait(navCtx, p.idleQuiet); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NavigationError{URL: url, Err: fmt.Errorf("network did not go idle: %w", err)}
	}
	return nil
}

func (p *cdpPage) URL(ctx context.Context) (string, error) {
	var location string
	err := p.run(ctx, p.actionTimeout, chromedp.Location(&location))
	return location, err
}

func (p *cdpPage) Text(ctx context.Context) (string, error) {
	var text string
	err := p.run(ctx, p.actionTimeout,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text))
	return text, err
}

func (p *cdpPage) Find(ctx context.Context, chain Chain) (Strategy, bool, error) {
	for _, s := range chain.Strategies {
		var found bool
		if err := p.run(ctx, p.actionTimeout, chromedp.Evaluate(s.existsScript(), &found)); err != nil {
			if ctx.Err() != nil {
				return Strategy{}, false, ctx.Err()
			}
			p.logger.Debug("Locator probe failed.", zap.String("chain", chain.Name), zap.Stringer("strategy", s), zap.Error(err))
			continue
		}
		if found {
			return s, true, nil
		}
	}
	return Strategy{}, false, nil
}

func (p *cdpPage) Click(ctx context.Context, s Strategy) error {
	if err := p.run(ctx, p.actionTimeout, chromedp.Click(s.Selector, s.queryOption(), chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", s.Name, err)
	}
	return nil
}

func (p *cdpPage) Fill(ctx context.Context, s Strategy, value string) error {
	err := p.run(ctx, p.actionTimeout,
		chromedp.Focus(s.Selector, s.queryOption(), chromedp.NodeVisible),
		chromedp.SetValue(s.Selector, "", s.queryOption()),
		chromedp.SendKeys(s.Selector, value, s.queryOption()),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", s.Name, err)
	}
	return nil
}

func (p *cdpPage) ScrollToBottom(ctx context.Context) error {
	return p.run(ctx, p.actionTimeout,
		chromedp.Evaluate(`window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`, nil))
}

func (p *cdpPage) TextsOf(ctx context.Context, css string) ([]string, error) {
	var texts []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.innerText || "")`, jsString(css))
	if err := p.run(ctx, p.actionTimeout, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, err
	}
	return texts, nil
}

// Release closes the tab and terminates the browser process.
func (p *cdpPage) Release(ctx context.Context) error {
	p.releaseOnce.Do(func() {
		closeCtx, cancel := context.WithTimeout(ctx, releaseGracePeriod)
		defer cancel()

		// chromedp.Cancel closes the browser gracefully; it fails if the browser already died.
		if err := chromedp.Cancel(p.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
			p.releaseErr = err
		}
		p.tabCancel()
		p.allocCancel()

		select {
		case <-p.allocCtx.Done():
		case <-closeCtx.Done():
			p.logger.Warn("Deadline exceeded waiting for browser to exit.", zap.Error(closeCtx.Err()))
		}
	})
	return p.releaseErr
}
