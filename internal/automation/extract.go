package automation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/api/schemas"
	"github.com/xkilldash9x/orderlens/internal/orders"
	"github.com/xkilldash9x/orderlens/internal/session"
)

// orderCardSelector matches every element whose class mentions "order".
const orderCardSelector = `[class*="order"]`

// ExtractOrders scrapes the order history and then destroys the session,
// whatever the outcome.
func (w *Workflow) ExtractOrders(ctx context.Context, sessionID string) schemas.ExtractResult {
	s, err := w.store.Acquire(sessionID)
	if err != nil {
		return schemas.ExtractResult{
			Orders:        []schemas.Order{},
			Message:       err.Error(),
			ErrorCode:     string(ErrCodeSessionNotFound),
			DiagnosticLog: []string{},
		}
	}
	logger := w.logger.With(zap.String("session_id", sessionID))

	var records []schemas.Order
	err = w.runPhase(ctx, s, func(phaseCtx context.Context) (err error) {
		records, err = w.extract(phaseCtx, s)
		return err
	})

	if err != nil {
		e := classify(s.Context(), err)
		s.Logf("extraction failed: " + e.Error())
		w.destroy(ctx, sessionID)
		logger.Warn("Extraction failed.", zap.String("code", string(e.Code)), zap.Error(e))
		return schemas.ExtractResult{
			Orders:        []schemas.Order{},
			Message:       e.Error(),
			ErrorCode:     string(e.Code),
			DiagnosticLog: s.Diagnostics(),
		}
	}

	w.destroy(ctx, sessionID)
	if len(records) == 0 {
		logger.Info("Extraction found no orders.")
		return schemas.ExtractResult{
			Orders:        []schemas.Order{},
			Message:       "no orders found",
			ErrorCode:     string(ErrCodeEmptyResult),
			DiagnosticLog: s.Diagnostics(),
		}
	}

	logger.Info("Extraction complete.", zap.Int("orders", len(records)))
	return schemas.ExtractResult{
		Success:       true,
		Orders:        records,
		Message:       fmt.Sprintf("scraped %d orders", len(records)),
		DiagnosticLog: s.Diagnostics(),
	}
}

// extract runs the extraction steps. The caller holds the session lock.
func (w *Workflow) extract(ctx context.Context, s *session.Session) ([]schemas.Order, error) {
	page := s.Page()
	if page == nil {
		return nil, &Error{Code: ErrCodeSessionNotFound, Message: "session has no browser"}
	}

	current, err := page.URL(ctx)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(current, w.target.OrdersPathMarker) {
		s.Logf("navigating to " + w.target.OrdersURL)
		if err := page.Navigate(ctx, w.target.OrdersURL, w.timing.NavigationTimeout); err != nil {
			return nil, err
		}
	} else {
		s.Logf("already on order history at " + current)
	}

	if err := pause(ctx, w.timing.ExtractSettle); err != nil {
		return nil, err
	}
	for i := 0; i < w.timing.ScrollRounds; i++ {
		if err := page.ScrollToBottom(ctx); err != nil {
			return nil, err
		}
		if err := pause(ctx, w.timing.ScrollPause); err != nil {
			return nil, err
		}
	}
	s.Logf(fmt.Sprintf("scrolled %d rounds", w.timing.ScrollRounds))

	texts, err := page.TextsOf(ctx, orderCardSelector)
	if err != nil {
		return nil, err
	}
	records, dropped := orders.ParseAll(texts)
	s.Logf(fmt.Sprintf("found %d order elements: %d parsed, %d skipped", len(texts), len(records), dropped))
	return records, nil
}
