package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/booklend/go-booklend-backend/internal/awsx"
	"github.com/booklend/go-booklend-backend/internal/logger"
)

func main() {
	log, err := logger.New("booklend-worker", os.Getenv("APP_DEVELOPMENT") == "true")
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()
	clients, err := awsx.NewClients(ctx)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	ordersTable := os.Getenv("APP_ORDERS_TABLE")
	if ordersTable == "" {
		ordersTable = "orders"
	}
	p := NewProcessor(clients, ordersTable, log)

	// RUN_LOCAL simulates a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1","tracking_id":"1700000000000-1234"}`
		}
		ev := events.SQSEvent{
			Records: []events.SQSMessage{{Body: body}},
		}
		if err := p.Handle(ctx, ev); err != nil {
			log.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
