package automation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/api/schemas"
	"github.com/xkilldash9x/orderlens/internal/browser"
	"github.com/xkilldash9x/orderlens/internal/session"
)

// BeginLogin opens a new session, launches its browser and submits the
// mobile number. On failure the session is destroyed.
func (w *Workflow) BeginLogin(ctx context.Context, mobileNumber string) schemas.LoginResult {
	id := w.newID()
	s, err := w.store.Create(id, mobileNumber)
	if err != nil {
		return schemas.LoginResult{
			Message:       err.Error(),
			ErrorCode:     string(ErrCodeSessionExists),
			DiagnosticLog: []string{},
		}
	}
	logger := w.logger.With(zap.String("session_id", id))

	if !s.Acquire() {
		return schemas.LoginResult{
			Message:       session.ErrSessionNotFound.Error(),
			ErrorCode:     string(ErrCodeSessionNotFound),
			DiagnosticLog: s.Diagnostics(),
		}
	}
	var needsOTP bool
	err = w.runPhase(ctx, s, func(phaseCtx context.Context) (err error) {
		needsOTP, err = w.login(phaseCtx, s, mobileNumber)
		return err
	})

	if err != nil {
		e := classify(s.Context(), err)
		s.Logf("login failed: " + e.Error())
		w.destroy(ctx, id)
		logger.Warn("Login failed.", zap.String("code", string(e.Code)), zap.Error(e))
		return schemas.LoginResult{
			Message:       e.Error(),
			ErrorCode:     string(e.Code),
			DiagnosticLog: s.Diagnostics(),
		}
	}

	result := schemas.LoginResult{
		Success:       true,
		SessionID:     id,
		NeedsOTP:      needsOTP,
		DiagnosticLog: s.Diagnostics(),
	}
	if needsOTP {
		result.Message = "one-time password sent"
	} else {
		result.Message = "already authenticated"
	}
	logger.Info("Login phase complete.", zap.Bool("needs_otp", needsOTP))
	return result
}

// login runs the login steps. The caller holds the session lock.
func (w *Workflow) login(ctx context.Context, s *session.Session, mobileNumber string) (bool, error) {
	s.Logf("launching browser")
	page, err := w.launcher.Launch(ctx)
	if err != nil {
		return false, err
	}
	s.AttachPage(page)
	s.Logf("browser launched")

	s.Logf("navigating to " + w.target.OrdersURL)
	if err := page.Navigate(ctx, w.target.OrdersURL, w.timing.NavigationTimeout); err != nil {
		return false, err
	}
	if url, err := page.URL(ctx); err == nil {
		s.Logf("landed on " + url)
	}
	if err := pause(ctx, w.timing.Settle); err != nil {
		return false, err
	}

	entry, hasEntry, err := page.Find(ctx, browser.LoginEntry)
	if err != nil {
		return false, err
	}
	text, err := page.Text(ctx)
	if err != nil {
		return false, err
	}
	if !hasEntry && !strings.Contains(text, "Login") {
		s.Logf("no login prompt on page; treating as already authenticated")
		return false, nil
	}

	if hasEntry {
		s.Logf("clicking login entry point via " + entry.Name)
		if err := page.Click(ctx, entry); err != nil {
			return false, err
		}
		if err := pause(ctx, w.timing.LoginClickPause); err != nil {
			return false, err
		}
	} else {
		s.Logf("no login entry point found; assuming the form is already visible")
	}

	input, ok, err := page.Find(ctx, browser.MobileInput)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, inputNotFound(browser.MobileInput.Name)
	}
	s.Logf("filling " + browser.MobileInput.Name + " via " + input.Name + " with " + maskMobile(mobileNumber))
	if err := page.Fill(ctx, input, mobileNumber); err != nil {
		return false, err
	}
	if err := pause(ctx, w.timing.FillPause); err != nil {
		return false, err
	}

	send, ok, err := page.Find(ctx, browser.SendCode)
	if err != nil {
		return false, err
	}
	if ok {
		s.Logf("clicking " + browser.SendCode.Name + " via " + send.Name)
		if err := page.Click(ctx, send); err != nil {
			return false, err
		}
	} else {
		s.Logf("no " + browser.SendCode.Name + " found; relying on auto-submit")
	}
	if err := pause(ctx, w.timing.SubmitPause); err != nil {
		return false, err
	}

	s.Logf("awaiting one-time password")
	return true, nil
}
