package automation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/api/schemas"
	"github.com/xkilldash9x/orderlens/internal/browser"
	"github.com/xkilldash9x/orderlens/internal/session"
)

const previewLength = 500

// rejectionMarkers indicate the page refused the code.
var rejectionMarkers = []string{"Invalid OTP", "incorrect"}

// SubmitOTP enters the code into the session's page and checks for rejection.
// The session stays live unless the attempt limit is reached.
func (w *Workflow) SubmitOTP(ctx context.Context, sessionID, otp string) schemas.OTPResult {
	s, err := w.store.Acquire(sessionID)
	if err != nil {
		return schemas.OTPResult{
			Message:       err.Error(),
			ErrorCode:     string(ErrCodeSessionNotFound),
			DiagnosticLog: []string{},
		}
	}
	logger := w.logger.With(zap.String("session_id", sessionID))

	err = w.runPhase(ctx, s, func(phaseCtx context.Context) error {
		return w.verify(phaseCtx, s, otp)
	})

	if err != nil {
		e := classify(s.Context(), err)
		s.Logf("otp verification failed: " + e.Error())
		if e.Code == ErrCodeOTPExhausted {
			w.destroy(ctx, sessionID)
		}
		logger.Warn("OTP phase failed.", zap.String("code", string(e.Code)), zap.Error(e))
		return schemas.OTPResult{
			Message:       e.Error(),
			ErrorCode:     string(e.Code),
			DiagnosticLog: s.Diagnostics(),
		}
	}

	logger.Info("OTP accepted.")
	return schemas.OTPResult{
		Success:       true,
		Message:       "verified",
		DiagnosticLog: s.Diagnostics(),
	}
}

// verify runs the OTP steps. The caller holds the session lock.
func (w *Workflow) verify(ctx context.Context, s *session.Session, otp string) error {
	page := s.Page()
	if page == nil {
		return &Error{Code: ErrCodeSessionNotFound, Message: "session has no browser"}
	}

	input, ok, err := page.Find(ctx, browser.OTPInput)
	if err != nil {
		return err
	}
	if !ok {
		return inputNotFound(browser.OTPInput.Name)
	}
	s.Logf("filling " + browser.OTPInput.Name + " via " + input.Name)
	if err := page.Fill(ctx, input, otp); err != nil {
		return err
	}
	if err := pause(ctx, w.timing.FillPause); err != nil {
		return err
	}

	verify, ok, err := page.Find(ctx, browser.VerifyCode)
	if err != nil {
		return err
	}
	if ok {
		s.Logf("clicking " + browser.VerifyCode.Name + " via " + verify.Name)
		if err := page.Click(ctx, verify); err != nil {
			return err
		}
	} else {
		s.Logf("no " + browser.VerifyCode.Name + " found; relying on auto-submit")
	}
	if err := pause(ctx, w.timing.VerifyPause); err != nil {
		return err
	}

	text, err := page.Text(ctx)
	if err != nil {
		return err
	}
	for _, marker := range rejectionMarkers {
		if !strings.Contains(text, marker) {
			continue
		}
		s.Logf("page preview: " + preview(text, previewLength))
		failures := s.RecordOTPFailure()
		if limit := w.timing.MaxOTPAttempts; limit > 0 && failures >= limit {
			return &Error{
				Code:    ErrCodeOTPExhausted,
				Message: fmt.Sprintf("Invalid OTP: %d of %d attempts used, session closed", failures, limit),
			}
		}
		return &Error{
			Code:    ErrCodeVerification,
			Message: fmt.Sprintf("Invalid OTP: page reported %q", marker),
		}
	}

	s.Logf("one-time password accepted")
	return nil
}
