package main

// FulfillmentMessage is the payload sent from the reconciliation engine ->
// SQS -> this worker after a payment is confirmed.
type FulfillmentMessage struct {
	OrderID    string `json:"order_id"`
	TrackingID string `json:"tracking_id"`
	SessionID  string `json:"session_id,omitempty"`
}
