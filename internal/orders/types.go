package orders

import "time"

// Payment sub-states. The only transition is unpaid -> paid, applied by the
// payment reconciliation flow.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Delivery states. A paid order starts at pending; the fulfillment worker
// advances it.
const (
	DeliveryPending    = "pending"
	DeliveryProcessing = "processing"
	DeliveryDelivered  = "delivered"
)

// Order represents a reader's borrow order in the orders table.
type Order struct {
	OrderID        string    `dynamodbav:"order_id"` // PK
	BookID         string    `dynamodbav:"book_id"`
	BookTitle      string    `dynamodbav:"book_title"`
	ReaderEmail    string    `dynamodbav:"reader_email"`
	LibrarianEmail string    `dynamodbav:"librarian_email,omitempty"`
	Address        string    `dynamodbav:"address,omitempty"`
	Phone          string    `dynamodbav:"phone,omitempty"`
	Price          float64   `dynamodbav:"price"`
	PaymentStatus  string    `dynamodbav:"payment_status"`            // unpaid | paid
	DeliveryStatus string    `dynamodbav:"delivery_status,omitempty"` // set when paid
	TrackingID     string    `dynamodbav:"tracking_id,omitempty"`     // assigned once, on payment
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
}

// StatusStats is the per-librarian / per-reader dashboard facet: order counts
// grouped by delivery and payment status.
type StatusStats struct {
	DeliveryStatus map[string]int `json:"deliveryStatus"`
	PaymentStatus  map[string]int `json:"paymentStatus"`
}
