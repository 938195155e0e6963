// internal/browser/allocator.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/orderlens/internal/config"
)

// allocatorFlag is one command-line switch. A false bool value suppresses the switch.
type allocatorFlag struct {
	name  string
	value interface{}
}

// allocatorFlags lists the switches layered on top of chromedp's defaults.
// Later entries win when a name repeats.
func allocatorFlags(cfg config.BrowserConfig) []allocatorFlag {
	flags := []allocatorFlag{
		// Advertises the driver to the page.
		{"enable-automation", false},
		{"headless", cfg.Headless},
		{"disable-blink-features", "AutomationControlled"},
		{"disable-extensions", true},
		{"disable-gpu", cfg.Headless},
		// Sandboxing is unavailable in most container runtimes.
		{"no-sandbox", true},
		{"disable-setuid-sandbox", true},
		{"disable-dev-shm-usage", true},
	}

	if cfg.UserAgent != "" {
		flags = append(flags, allocatorFlag{"user-agent", cfg.UserAgent})
	}
	if cfg.IgnoreTLSErrors {
		flags = append(flags, allocatorFlag{"ignore-certificate-errors", true})
	}
	if cfg.DisableCache {
		flags = append(flags,
			allocatorFlag{"disk-cache-size", "0"},
			allocatorFlag{"media-cache-size", "0"},
			allocatorFlag{"disable-cache", true},
		)
	}

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags = append(flags, allocatorFlag{name, parts[1]})
		} else {
			flags = append(flags, allocatorFlag{name, true})
		}
	}
	return flags
}

// DefaultAllocatorOptions assembles the options for one isolated headless browser process.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range allocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}
