// internal/browser/locator.go
package browser

import (
	"fmt"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
)

// Kind is the selector dialect of a Strategy.
type Kind int

const (
	// CSS selectors are resolved with querySelector.
	CSS Kind = iota
	// XPath expressions are used for text matching, which CSS cannot express.
	XPath
)

// Strategy is one named way of locating an element.
type Strategy struct {
	Name     string
	Selector string
	Kind     Kind
}

// Chain is an ordered fallback list. The first strategy that matches wins.
type Chain struct {
	Name       string
	Strategies []Strategy
}

// textButton matches a button-like element whose visible text contains any of texts.
func textButton(name string, texts ...string) Strategy {
	cond := ""
	for i, t := range texts {
		if i > 0 {
			cond += " or "
		}
		cond += fmt.Sprintf("contains(normalize-space(.), %q)", t)
	}
	return Strategy{Name: name, Selector: "//button[" + cond + "]", Kind: XPath}
}

// Selector policy for the target service. Adjust here when the page changes.
var (
	LoginEntry = Chain{
		Name: "login entry point",
		Strategies: []Strategy{
			{Name: "test-id", Selector: `[data-testid*="login" i], [role="button"][aria-label*="login" i]`, Kind: CSS},
			{Name: "link text", Selector: `//a[contains(normalize-space(.), "Log in") or contains(normalize-space(.), "Login")]`, Kind: XPath},
			textButton("button text", "Log in", "Login"),
		},
	}

	MobileInput = Chain{
		Name: "mobile number input",
		Strategies: []Strategy{
			{Name: "tel input", Selector: `input[type="tel"]`, Kind: CSS},
			{Name: "placeholder", Selector: `input[placeholder*="phone" i], input[placeholder*="mobile" i]`, Kind: CSS},
			{Name: "name attribute", Selector: `input[name*="phone" i], input[name*="mobile" i]`, Kind: CSS},
		},
	}

	SendCode = Chain{
		Name: "send code control",
		Strategies: []Strategy{
			textButton("button text", "Send One Time Password", "Send OTP", "Get OTP", "Continue"),
			{Name: "submit button", Selector: `button[type="submit"]`, Kind: CSS},
		},
	}

	OTPInput = Chain{
		Name: "otp input",
		Strategies: []Strategy{
			{Name: "text input", Selector: `input[type="text"], input[type="number"], input[autocomplete="one-time-code"]`, Kind: CSS},
			{Name: "placeholder", Selector: `input[placeholder*="otp" i], input[placeholder*="code" i]`, Kind: CSS},
			{Name: "name attribute", Selector: `input[name*="otp" i], input[name*="code" i]`, Kind: CSS},
		},
	}

	VerifyCode = Chain{
		Name: "verify control",
		Strategies: []Strategy{
			textButton("button text", "Verify", "Continue", "Submit"),
			{Name: "submit button", Selector: `button[type="submit"]`, Kind: CSS},
		},
	}
)

// queryOption maps a Strategy to the chromedp selector mode.
func (s Strategy) queryOption() chromedp.QueryOption {
	if s.Kind == XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// existsScript returns a JS expression that evaluates to true when s matches an element.
func (s Strategy) existsScript() string {
	quoted := jsString(s.Selector)
	if s.Kind == XPath {
		return fmt.Sprintf(`(() => { try { return document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue !== null; } catch (e) { return false; } })()`, quoted)
	}
	return fmt.Sprintf(`(() => { try { return document.querySelector(%s) !== null; } catch (e) { return false; } })()`, quoted)
}

// jsString quotes v as a JavaScript string literal.
func jsString(v string) string {
	quoted, err := jsoniter.MarshalToString(v)
	if err != nil {
		// A Go string always marshals.
		return `""`
	}
	return quoted
}

// String implements fmt.Stringer for logging.
func (s Strategy) String() string {
	return s.Name + " (" + s.Selector + ")"
}
