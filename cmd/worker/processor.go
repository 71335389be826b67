package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/booklend/go-booklend-backend/internal/awsx"
	"github.com/booklend/go-booklend-backend/internal/orders"
)

// Processor handles fulfillment messages and advances delivery state.
type Processor struct {
	orderStore *orders.Store
	log        *zap.Logger
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *awsx.Clients, ordersTable string, log *zap.Logger) *Processor {
	return &Processor{
		orderStore: orders.NewStore(clients.DynamoDB, ordersTable),
		log:        log,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry, then DLQ.
			p.log.Error("worker error", zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg FulfillmentMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	p.log.Info("received fulfillment message",
		zap.String("order_id", msg.OrderID),
		zap.String("tracking_id", msg.TrackingID))

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		// Should never happen: the engine confirmed the order exists before publishing.
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}
	if order.PaymentStatus != orders.PaymentPaid {
		return fmt.Errorf("order=%s reached fulfillment while %s", msg.OrderID, order.PaymentStatus)
	}

	err = p.orderStore.UpdateDeliveryStatus(ctx, msg.OrderID, orders.DeliveryPending, orders.DeliveryProcessing)
	if err == orders.ErrStatusMismatch {
		// Duplicate delivery or a librarian already progressed the order.
		o2, getErr := p.orderStore.Get(ctx, msg.OrderID)
		if getErr != nil || o2 == nil {
			return fmt.Errorf("order=%s vanished during fulfillment", msg.OrderID)
		}
		switch o2.DeliveryStatus {
		case orders.DeliveryProcessing, orders.DeliveryDelivered:
			p.log.Info("duplicate fulfillment message, order already progressed",
				zap.String("order_id", msg.OrderID),
				zap.String("delivery_status", o2.DeliveryStatus))
			return nil
		default:
			return fmt.Errorf("unexpected delivery status for order=%s: %q", msg.OrderID, o2.DeliveryStatus)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to advance delivery status: %w", err)
	}

	p.log.Info("order moved to processing", zap.String("order_id", msg.OrderID))
	return nil
}
