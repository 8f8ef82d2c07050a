package repository

import (
	"context"
	"database/sql"

	"github.com/medoraai/clinic-backend/internal/model"
)

type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// Create records a pending payment receipt and returns its ID. Review
// happens out of band in the admin group.
func (r *PaymentRepo) Create(ctx context.Context, p model.SubscriptionPayment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO subscription_payments (user_id, plan_id, amount, status, receipt_note) VALUES (?,?,?,?,?)",
		p.UserID, p.PlanID, p.Amount, p.Status, p.ReceiptNote)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns a user's payment history, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.SubscriptionPayment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, plan_id, amount, status, receipt_note, created_at, reviewed_at, reviewed_by "+
			"FROM subscription_payments WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SubscriptionPayment
	for rows.Next() {
		var p model.SubscriptionPayment
		if err := rows.Scan(&p.ID, &p.UserID, &p.PlanID, &p.Amount, &p.Status,
			&p.ReceiptNote, &p.CreatedAt, &p.ReviewedAt, &p.ReviewedBy); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
