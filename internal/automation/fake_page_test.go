package automation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xkilldash9x/orderlens/internal/browser"
)

// fakePage is a scripted browser.Page. Chains listed in found resolve to
// their first strategy; all others report no match.
type fakePage struct {
	mu          sync.Mutex
	found       map[string]bool
	text        string
	url         string
	cards       []string
	navigateErr error
	scrollErr   error
	// findPanic, when set, makes Find panic with this value.
	findPanic interface{}
	// scrollPanic, when set, makes ScrollToBottom panic with this value.
	scrollPanic interface{}
	// navigateGate, when set, blocks Navigate until the gate closes or ctx ends.
	navigateGate chan struct{}
	navigating   chan struct{}
	calls        []string

	releases atomic.Int32
}

func newFakePage() *fakePage {
	return &fakePage{found: map[string]bool{}, navigating: make(chan struct{}, 1)}
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePage) setText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
}

func (p *fakePage) setFound(chain browser.Chain, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.found[chain.Name] = ok
}

func (p *fakePage) Navigate(ctx context.Context, url string, _ time.Duration) error {
	p.record("navigate " + url)
	select {
	case p.navigating <- struct{}{}:
	default:
	}
	if p.navigateGate != nil {
		select {
		case <-p.navigateGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Text(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text, nil
}

func (p *fakePage) Find(_ context.Context, chain browser.Chain) (browser.Strategy, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.findPanic != nil {
		panic(p.findPanic)
	}
	if p.found[chain.Name] {
		return chain.Strategies[0], true, nil
	}
	return browser.Strategy{}, false, nil
}

func (p *fakePage) Click(_ context.Context, s browser.Strategy) error {
	p.record("click " + s.Name)
	return nil
}

func (p *fakePage) Fill(_ context.Context, s browser.Strategy, value string) error {
	p.record("fill " + s.Name + " " + value)
	return nil
}

func (p *fakePage) ScrollToBottom(context.Context) error {
	p.record("scroll")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scrollPanic != nil {
		panic(p.scrollPanic)
	}
	return p.scrollErr
}

func (p *fakePage) TextsOf(_ context.Context, css string) ([]string, error) {
	p.record("texts " + css)
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.cards...), nil
}

func (p *fakePage) Release(context.Context) error {
	p.releases.Add(1)
	return nil
}

type fakeLauncher struct {
	page *fakePage
	err  error
}

func (l *fakeLauncher) Launch(context.Context) (browser.Page, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.page, nil
}
