package payments

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	stripeclient "github.com/stripe/stripe-go/v79/client"
)

// Metadata keys attached to a checkout session at creation time and read back
// during confirmation.
const (
	metadataOrderID   = "orderId"
	metadataBookTitle = "bookName"
)

// CheckoutSession is the engine's view of a gateway-side session.
type CheckoutSession struct {
	ID              string
	Settled         bool
	AmountTotal     int64 // minor units
	Currency        string
	CustomerEmail   string
	PaymentIntentID string
	OrderID         string
	BookTitle       string
}

// CreateSessionInput describes the checkout to initiate.
type CreateSessionInput struct {
	OrderID     string
	BookTitle   string
	ReaderEmail string
	AmountCents int64
	SuccessURL  string
	CancelURL   string
}

// Gateway is the payment gateway boundary. The gateway owns the authoritative
// settlement state; this interface is read-only apart from session creation.
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (url string, err error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// StripeGateway implements Gateway against Stripe Checkout.
type StripeGateway struct {
	api *stripeclient.API
}

// NewStripeGateway builds a gateway client from an API key.
func NewStripeGateway(apiKey string) *StripeGateway {
	api := &stripeclient.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{api: api}
}

// CreateSession opens a one-item checkout session and returns the hosted
// payment page URL. The order id and book title ride along as metadata so the
// confirmation flow can find its way back to the order.
func (g *StripeGateway) CreateSession(ctx context.Context, in CreateSessionInput) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.BookTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(in.ReaderEmail),
		SuccessURL:    stripe.String(in.SuccessURL),
		CancelURL:     stripe.String(in.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderID, in.OrderID)
	params.AddMetadata(metadataBookTitle, in.BookTitle)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// RetrieveSession fetches the current state of a session.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	out := &CheckoutSession{
		ID:            sess.ID,
		Settled:       sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		CustomerEmail: sess.CustomerEmail,
		OrderID:       sess.Metadata[metadataOrderID],
		BookTitle:     sess.Metadata[metadataBookTitle],
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out, nil
}
