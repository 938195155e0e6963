// File: cmd/fetch_test.go
package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/orderlens/api/schemas"
	"github.com/xkilldash9x/orderlens/internal/automation"
)

// scriptedWorkflow answers each OTP submission from a queue.
type scriptedWorkflow struct {
	login     schemas.LoginResult
	otp       []schemas.OTPResult
	extract   schemas.ExtractResult
	codes     []string
	cancelled bool
}

func (w *scriptedWorkflow) BeginLogin(context.Context, string) schemas.LoginResult { return w.login }

func (w *scriptedWorkflow) SubmitOTP(_ context.Context, _ string, otp string) schemas.OTPResult {
	w.codes = append(w.codes, otp)
	res := w.otp[0]
	w.otp = w.otp[1:]
	return res
}

func (w *scriptedWorkflow) ExtractOrders(context.Context, string) schemas.ExtractResult { return w.extract }

func (w *scriptedWorkflow) Cancel(context.Context, string) schemas.CancelResult {
	w.cancelled = true
	return schemas.CancelResult{Success: true}
}

var sampleOrders = []schemas.Order{
	{Date: "2024-03-15", Amount: 450, RestaurantName: "Pizza Place"},
	{Date: "2024-04-02", Amount: 1234.5, RestaurantName: "Dosa Corner"},
}

func rejected() schemas.OTPResult {
	return schemas.OTPResult{Message: "Invalid OTP", ErrorCode: string(automation.ErrCodeVerification)}
}

func TestRunFetch_RetriesOTPThenPrintsTable(t *testing.T) {
	wf := &scriptedWorkflow{
		login:   schemas.LoginResult{Success: true, SessionID: "s1", NeedsOTP: true},
		otp:     []schemas.OTPResult{rejected(), {Success: true}},
		extract: schemas.ExtractResult{Success: true, Orders: sampleOrders},
	}
	var out bytes.Buffer

	err := runFetch(context.Background(), wf, "9876543210", strings.NewReader("000000\n\n123456\n"), &out, false)

	require.NoError(t, err)
	assert.Equal(t, []string{"000000", "123456"}, wf.codes)
	text := out.String()
	assert.Contains(t, text, "Invalid OTP")
	assert.Contains(t, text, "Verified.")
	assert.Contains(t, text, "Dosa Corner")
	assert.Contains(t, text, "Mar 2024")
	assert.Contains(t, text, "1684.50")
}

func TestRunFetch_AlreadyAuthenticatedJSON(t *testing.T) {
	wf := &scriptedWorkflow{
		login:   schemas.LoginResult{Success: true, SessionID: "s1"},
		extract: schemas.ExtractResult{Success: true, Orders: sampleOrders},
	}
	var out bytes.Buffer

	require.NoError(t, runFetch(context.Background(), wf, "1", strings.NewReader(""), &out, true))

	var report fetchReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Len(t, report.Orders, 2)
	assert.Len(t, report.Months, 2)
	assert.Equal(t, 2, report.Overall.Count)
	assert.Empty(t, wf.codes)
}

func TestRunFetch_NoOrders(t *testing.T) {
	wf := &scriptedWorkflow{
		login: schemas.LoginResult{Success: true, SessionID: "s1"},
		extract: schemas.ExtractResult{
			Orders:    []schemas.Order{},
			Message:   "no orders found",
			ErrorCode: string(automation.ErrCodeEmptyResult),
		},
	}
	var out bytes.Buffer
	require.NoError(t, runFetch(context.Background(), wf, "1", strings.NewReader(""), &out, false))
	assert.Contains(t, out.String(), "No orders found.")
}

func TestRunFetch_Failures(t *testing.T) {
	t.Run("Login", func(t *testing.T) {
		wf := &scriptedWorkflow{login: schemas.LoginResult{Message: "could not start browser"}}
		err := runFetch(context.Background(), wf, "1", strings.NewReader(""), &bytes.Buffer{}, false)
		assert.ErrorContains(t, err, "could not start browser")
	})

	t.Run("AttemptsExhausted", func(t *testing.T) {
		wf := &scriptedWorkflow{
			login: schemas.LoginResult{Success: true, SessionID: "s1", NeedsOTP: true},
			otp: []schemas.OTPResult{{
				Message:   "Invalid OTP: 3 of 3 attempts used, session closed",
				ErrorCode: string(automation.ErrCodeOTPExhausted),
			}},
		}
		err := runFetch(context.Background(), wf, "1", strings.NewReader("1\n"), &bytes.Buffer{}, false)
		assert.ErrorContains(t, err, "3 of 3")
		assert.True(t, wf.cancelled)
	})

	t.Run("StdinClosed", func(t *testing.T) {
		wf := &scriptedWorkflow{login: schemas.LoginResult{Success: true, SessionID: "s1", NeedsOTP: true}}
		err := runFetch(context.Background(), wf, "1", strings.NewReader(""), &bytes.Buffer{}, false)
		assert.ErrorContains(t, err, "no one-time password entered")
		assert.True(t, wf.cancelled)
	})

	t.Run("Extraction", func(t *testing.T) {
		wf := &scriptedWorkflow{
			login:   schemas.LoginResult{Success: true, SessionID: "s1"},
			extract: schemas.ExtractResult{Orders: []schemas.Order{}, Message: "browser step failed", ErrorCode: string(automation.ErrCodeBrowser)},
		}
		err := runFetch(context.Background(), wf, "1", strings.NewReader(""), &bytes.Buffer{}, false)
		assert.ErrorContains(t, err, "extraction failed")
	})
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Mar 2024", monthLabel("2024-03"))
	assert.Equal(t, "garbage", monthLabel("garbage"))
}
