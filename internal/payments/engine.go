package payments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/booklend/go-booklend-backend/internal/apperrors"
	"github.com/booklend/go-booklend-backend/internal/orders"
)

// Outcome dimension values emitted per confirmation.
const (
	OutcomeConfirmed        = "Confirmed"
	OutcomeAlreadyProcessed = "AlreadyProcessed"
	OutcomeNotPaid          = "NotPaid"
	OutcomeGatewayFailure   = "GatewayFailure"
	OutcomeOrderMissing     = "OrderMissing"
)

// FulfillmentPublisher hands a settled order off to the delivery pipeline.
type FulfillmentPublisher interface {
	SendFulfillmentMessage(ctx context.Context, messageBody string, attributes map[string]string) error
}

// OutcomeRecorder counts confirmation outcomes.
type OutcomeRecorder interface {
	CountOutcome(ctx context.Context, outcome string) error
}

// Engine reconciles a completed checkout against the gateway's settlement
// state and, when settled, advances the order and records the payment exactly
// once. It holds no state of its own; all durable state lives in the order
// store and the ledger.
type Engine struct {
	gateway        Gateway
	orders         *orders.Store
	ledger         *Ledger
	tracking       *TrackingGenerator
	publisher      FulfillmentPublisher
	metrics        OutcomeRecorder
	log            *zap.Logger
	gatewayTimeout time.Duration
	nowFunc        func() time.Time
}

// EngineConfig groups the engine's collaborators. Publisher and Metrics are
// optional; everything else is required.
type EngineConfig struct {
	Gateway        Gateway
	Orders         *orders.Store
	Ledger         *Ledger
	Tracking       *TrackingGenerator
	Publisher      FulfillmentPublisher
	Metrics        OutcomeRecorder
	Logger         *zap.Logger
	GatewayTimeout time.Duration
}

// NewEngine constructs a reconciliation engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		gateway:        cfg.Gateway,
		orders:         cfg.Orders,
		ledger:         cfg.Ledger,
		tracking:       cfg.Tracking,
		publisher:      cfg.Publisher,
		metrics:        cfg.Metrics,
		log:            cfg.Logger,
		gatewayTimeout: cfg.GatewayTimeout,
		nowFunc:        time.Now,
	}
}

// Confirm verifies the session's settlement state with the gateway and, if
// settled, transitions the order to paid and appends the payment record.
// Safe to call any number of times, concurrently or not, for the same
// session: the order transition and the ledger insert each happen at most
// once.
func (e *Engine) Confirm(ctx context.Context, sessionID string) (*ConfirmationResult, error) {
	gctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	sess, err := e.gateway.RetrieveSession(gctx, sessionID)
	if err != nil {
		e.count(ctx, OutcomeGatewayFailure)
		return nil, apperrors.Wrap(apperrors.CodeGatewayFailure, "could not verify session with gateway", err)
	}

	if !sess.Settled {
		e.count(ctx, OutcomeNotPaid)
		return &ConfirmationResult{Status: StatusNotPaid}, nil
	}

	// Fast path: skip the order write when the session was already recorded.
	// The ledger's uniqueness constraint below remains the real guard.
	existing, err := e.ledger.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "ledger lookup failed", err)
	}
	if existing != nil {
		e.count(ctx, OutcomeAlreadyProcessed)
		return &ConfirmationResult{Status: StatusAlreadyProcessed, Payment: existing}, nil
	}

	trackingID := e.tracking.Generate()
	updated, err := e.orders.MarkPaid(ctx, sess.OrderID, trackingID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			e.count(ctx, OutcomeOrderMissing)
			return nil, apperrors.Wrap(apperrors.CodeOrderNotFound,
				"session metadata references a missing order", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "order transition failed", err)
	}

	rec := Record{
		SessionID:       sessionID,
		Amount:          float64(sess.AmountTotal) / 100,
		Currency:        sess.Currency,
		ReaderEmail:     sess.CustomerEmail,
		OrderID:         sess.OrderID,
		BookTitle:       sess.BookTitle,
		Date:            e.nowFunc().UTC().Format("2006-01-02"),
		PaymentIntentID: sess.PaymentIntentID,
		PaymentStatus:   orders.PaymentPaid,
	}
	inserted, err := e.ledger.InsertIfAbsent(ctx, rec)
	if err != nil {
		// The order already transitioned; the transition is idempotent, so a
		// retry of the whole Confirm is safe.
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "ledger insert failed", err)
	}
	if !inserted {
		// Lost the race against a concurrent confirmation. The winner owns
		// the order transition; do not re-apply it.
		e.log.Info("duplicate confirmation lost ledger race",
			zap.String("session_id", sessionID),
			zap.String("order_id", sess.OrderID))
		e.count(ctx, OutcomeAlreadyProcessed)
		winner, getErr := e.ledger.GetBySession(ctx, sessionID)
		if getErr != nil {
			winner = nil
		}
		return &ConfirmationResult{Status: StatusAlreadyProcessed, Payment: winner}, nil
	}

	e.afterCommit(ctx, updated, sessionID)

	return &ConfirmationResult{
		Status:  StatusPaid,
		Order:   updated,
		Payment: &rec,
	}, nil
}

// afterCommit runs best-effort side channels. Failures are logged and never
// alter the confirmation result.
func (e *Engine) afterCommit(ctx context.Context, o *orders.Order, sessionID string) {
	e.count(ctx, OutcomeConfirmed)

	if e.publisher == nil {
		return
	}
	body, err := json.Marshal(map[string]string{
		"order_id":    o.OrderID,
		"tracking_id": o.TrackingID,
		"session_id":  sessionID,
	})
	if err != nil {
		return
	}
	attrs := map[string]string{
		"order_id":   o.OrderID,
		"session_id": sessionID,
	}
	if err := e.publisher.SendFulfillmentMessage(ctx, string(body), attrs); err != nil {
		e.log.Warn("fulfillment publish failed",
			zap.String("order_id", o.OrderID),
			zap.Error(err))
	}
}

func (e *Engine) count(ctx context.Context, outcome string) {
	if e.metrics == nil {
		return
	}
	if err := e.metrics.CountOutcome(ctx, outcome); err != nil {
		e.log.Debug("outcome metric emit failed", zap.Error(err))
	}
}
