// File: internal/api/handlers.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/orderlens/api/schemas"
	"github.com/xkilldash9x/orderlens/internal/automation"
	"github.com/xkilldash9x/orderlens/internal/orders"
)

// maxBodyBytes caps request bodies. Analytics payloads carry whole order lists.
const maxBodyBytes = 1 << 20

// Workflow is the set of phase operations the API exposes.
type Workflow interface {
	BeginLogin(ctx context.Context, mobileNumber string) schemas.LoginResult
	SubmitOTP(ctx context.Context, sessionID, otp string) schemas.OTPResult
	ExtractOrders(ctx context.Context, sessionID string) schemas.ExtractResult
	Cancel(ctx context.Context, sessionID string) schemas.CancelResult
}

// -- Requests --

type loginRequest struct {
	MobileNumber string `json:"mobileNumber"`
}

type otpRequest struct {
	SessionID string `json:"sessionId"`
	OTP       string `json:"otp"`
}

type ordersRequest struct {
	SessionID string `json:"sessionId"`
}

type monthlyRequest struct {
	Orders []schemas.Order `json:"orders"`
}

type rangeRequest struct {
	Orders    []schemas.Order `json:"orders"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
}

// errorResponse is returned for requests rejected before reaching a phase.
type errorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeRateLimited    = "RATE_LIMITED"
	codeBusy           = "TOO_MANY_LOGINS"
)

// Handlers serves the HTTP API.
type Handlers struct {
	log      *zap.Logger
	workflow Workflow
	limiter  *rate.Limiter
	logins   *semaphore.Weighted
}

// NewHandlers creates the handler set. limiter and logins may be nil to disable them.
func NewHandlers(logger *zap.Logger, workflow Workflow, limiter *rate.Limiter, logins *semaphore.Weighted) *Handlers {
	return &Handlers{
		log:      logger.Named("api_handlers"),
		workflow: workflow,
		limiter:  limiter,
		logins:   logins,
	}
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/otp", h.HandleOTP)
		r.Post("/orders", h.HandleOrders)
		r.Delete("/sessions/{sessionID}", h.HandleCancel)

		r.Route("/analytics", func(r chi.Router) {
			r.Post("/monthly", h.HandleMonthly)
			r.Post("/range", h.HandleRange)
		})
	})
}

// HandleHealthCheck confirms the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.MobileNumber = strings.TrimSpace(req.MobileNumber)
	if req.MobileNumber == "" {
		h.respondWithError(w, http.StatusBadRequest, codeInvalidRequest, "mobileNumber is required")
		return
	}

	if h.limiter != nil && !h.limiter.Allow() {
		h.respondWithError(w, http.StatusTooManyRequests, codeRateLimited, "too many login attempts, try again later")
		return
	}
	if h.logins != nil {
		if !h.logins.TryAcquire(1) {
			h.respondWithError(w, http.StatusServiceUnavailable, codeBusy, "all browser slots are busy, try again later")
			return
		}
		defer h.logins.Release(1)
	}

	res := h.workflow.BeginLogin(r.Context(), req.MobileNumber)
	h.respond(w, statusFor(res.Success, res.ErrorCode), res)
}

func (h *Handlers) HandleOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.OTP) == "" {
		h.respondWithError(w, http.StatusBadRequest, codeInvalidRequest, "sessionId and otp are required")
		return
	}

	res := h.workflow.SubmitOTP(r.Context(), req.SessionID, strings.TrimSpace(req.OTP))
	h.respond(w, statusFor(res.Success, res.ErrorCode), res)
}

func (h *Handlers) HandleOrders(w http.ResponseWriter, r *http.Request) {
	var req ordersRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		h.respondWithError(w, http.StatusBadRequest, codeInvalidRequest, "sessionId is required")
		return
	}

	res := h.workflow.ExtractOrders(r.Context(), req.SessionID)
	h.respond(w, statusFor(res.Success, res.ErrorCode), res)
}

func (h *Handlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.respond(w, http.StatusOK, h.workflow.Cancel(r.Context(), sessionID))
}

func (h *Handlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	var req monthlyRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"months":  orders.Monthly(req.Orders),
		"overall": orders.Summarize(req.Orders),
	})
}

func (h *Handlers) HandleRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !h.decode(w, r, &req) {
		return
	}
	summary, err := orders.InRange(req.Orders, req.StartDate, req.EndDate)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	h.respond(w, http.StatusOK, summary)
}

// statusFor maps a phase outcome to an HTTP status. The body always carries the detail.
func statusFor(success bool, code string) int {
	if success {
		return http.StatusOK
	}
	switch automation.ErrorCode(code) {
	case automation.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case automation.ErrCodeVerification, automation.ErrCodeOTPExhausted:
		return http.StatusUnauthorized
	case automation.ErrCodeInputNotFound:
		return http.StatusUnprocessableEntity
	case automation.ErrCodeEmptyResult:
		return http.StatusOK
	case automation.ErrCodeSessionExists:
		return http.StatusConflict
	case automation.ErrCodeNavigation, automation.ErrCodeLaunch:
		return http.StatusBadGateway
	case automation.ErrCodeCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v, responding with 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondWithError(w, http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, code, message string) {
	h.respond(w, statusCode, errorResponse{Message: message, ErrorCode: code})
}

func (h *Handlers) respond(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
