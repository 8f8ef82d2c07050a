// Package queue defines message payloads exchanged over the message
// broker, plus the background consumer that forwards them to Telegram.
package queue

// PaymentQueueName is the durable queue carrying payment receipt events.
const PaymentQueueName = "payment.received"

// PaymentReceivedEvent is published when a user submits a subscription
// payment receipt. It contains enough information for the notification
// consumer to alert the admin group without querying the database,
// including the receipt image itself: the admins approve or reject
// based on that photo, so it travels with the event (base64 over JSON,
// bounded by the upload size limit).
type PaymentReceivedEvent struct {
	PaymentID   uint64 `json:"payment_id"`
	UserID      uint64 `json:"user_id"`
	UserName    string `json:"user_name"`
	UserPhone   string `json:"user_phone"`
	UserRole    string `json:"user_role"`
	PlanName    string `json:"plan_name,omitempty"`
	Amount      int64  `json:"amount"`
	ReceiptNote string `json:"receipt_note,omitempty"`
	SubmittedAt string `json:"submitted_at"`

	ReceiptImage []byte `json:"receipt_image,omitempty"`
	ReceiptName  string `json:"receipt_name,omitempty"`
	ReceiptMIME  string `json:"receipt_mime,omitempty"`
}
