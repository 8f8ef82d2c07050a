package model

import "time"

// Payment review states for subscription_payments.status.
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// SubscriptionPayment is a payment receipt submitted by a user. It is
// created in the pending state when the receipt is forwarded to the
// admin group; an admin later approves or rejects it out of band.
type SubscriptionPayment struct {
	ID          uint64
	UserID      uint64
	PlanID      *uint64
	Amount      int64
	Status      string
	ReceiptNote string
	CreatedAt   time.Time
	ReviewedAt  *time.Time
	ReviewedBy  *uint64
}
