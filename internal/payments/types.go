package payments

import "github.com/booklend/go-booklend-backend/internal/orders"

// Record is the durable evidence that a checkout session settled. The session
// id is the primary key and the idempotency key of the whole confirmation
// flow: at most one Record ever exists per session.
type Record struct {
	SessionID       string  `dynamodbav:"session_id" json:"sessionId"` // PK, unique
	Amount          float64 `dynamodbav:"amount" json:"amount"`        // major units
	Currency        string  `dynamodbav:"currency" json:"currency"`
	ReaderEmail     string  `dynamodbav:"reader_email" json:"readerEmail"`
	OrderID         string  `dynamodbav:"order_id" json:"orderId"`
	BookTitle       string  `dynamodbav:"book_title" json:"bookTitle"`
	Date            string  `dynamodbav:"date" json:"date"` // settlement date, YYYY-MM-DD
	PaymentIntentID string  `dynamodbav:"payment_intent_id" json:"paymentIntentId"`
	PaymentStatus   string  `dynamodbav:"payment_status" json:"paymentStatus"`
}

// ConfirmationStatus classifies the outcome of a confirmation call.
type ConfirmationStatus string

const (
	// StatusPaid: the session settled and this call performed the order
	// transition and ledger insert.
	StatusPaid ConfirmationStatus = "paid"
	// StatusNotPaid: the gateway reports the session unsettled; nothing was
	// written and the caller may poll again.
	StatusNotPaid ConfirmationStatus = "not_paid"
	// StatusAlreadyProcessed: a previous confirmation already recorded this
	// session; this call was a no-op.
	StatusAlreadyProcessed ConfirmationStatus = "already_processed"
)

// ConfirmationResult is the outcome of Engine.Confirm.
type ConfirmationResult struct {
	Status ConfirmationStatus
	// Order is the post-transition order state; set only for StatusPaid.
	Order *orders.Order
	// Payment is the ledger record for the session; set for StatusPaid and,
	// when it can be read back, for StatusAlreadyProcessed.
	Payment *Record
}
