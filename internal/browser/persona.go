// internal/browser/persona.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/internal/config"
)

// Persona is the browser identity presented to the target site.
type Persona struct {
	UserAgent string
	Platform  string
	Languages []string
	Timezone  string
	Locale    string
}

// DefaultPersona is a desktop Chrome user in India.
var DefaultPersona = Persona{
	UserAgent: config.DefaultUserAgent,
	Platform:  "Win32",
	Languages: []string{"en-IN", "en"},
	Timezone:  "Asia/Kolkata",
	Locale:    "en-IN",
}

// hideAutomationScript runs before any page script in every new document.
const hideAutomationScript = `(() => {
  try {
    Object.defineProperty(Navigator.prototype, 'webdriver', { get: () => undefined, configurable: true });
  } catch (e) {}
  if (!window.chrome) { window.chrome = { runtime: {} }; }
})()`

// acceptLanguage renders Languages as a weighted Accept-Language value.
func (p Persona) acceptLanguage() string {
	if len(p.Languages) == 0 {
		return ""
	}
	parts := make([]string, len(p.Languages))
	for i, lang := range p.Languages {
		if i == 0 {
			parts[i] = lang
			continue
		}
		q := 1.0 - 0.1*float64(i)
		if q < 0.1 {
			q = 0.1
		}
		parts[i] = fmt.Sprintf("%s;q=%.1f", lang, q)
	}
	return strings.Join(parts, ",")
}

// apply returns the actions that install p on a tab. Requires network.Enable
// to have run first for the header override to take effect.
func (p Persona) apply(logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser persona",
		zap.String("user_agent", p.UserAgent),
		zap.String("timezone", p.Timezone),
	)

	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(p.UserAgent).
			WithAcceptLanguage(p.acceptLanguage()).
			WithPlatform(p.Platform),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(hideAutomationScript).Do(ctx); err != nil {
				return fmt.Errorf("failed to install automation shim: %w", err)
			}
			return nil
		}),
	}
	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	if lang := p.acceptLanguage(); lang != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": lang}))
	}
	return tasks
}
