package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medoraai/clinic-backend/internal/model"
)

type PlanRepo struct{ DB *sql.DB }

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{DB: db} }

const planColumns = "id,name,slug,plan_type,description,price_monthly,price_currency," +
	"duration_days,is_trial,trial_days,max_analyses_per_month,sort_order,is_active,created_at,updated_at"

// ListActive returns all active plans in display order.
func (r *PlanRepo) ListActive(ctx context.Context) ([]model.SubscriptionPlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+planColumns+" FROM subscription_plans WHERE is_active=1 ORDER BY sort_order ASC, price_monthly ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetActive fetches one active plan by id.
func (r *PlanRepo) GetActive(ctx context.Context, id uint64) (model.SubscriptionPlan, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM subscription_plans WHERE id=? AND is_active=1 LIMIT 1", id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SubscriptionPlan{}, ErrNotFound
	}
	return p, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanPlan(row rowScanner) (model.SubscriptionPlan, error) {
	var (
		p   model.SubscriptionPlan
		max sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.PlanType, &p.Description,
		&p.PriceMonthly, &p.PriceCurrency, &p.DurationDays, &p.IsTrial, &p.TrialDays,
		&max, &p.SortOrder, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.SubscriptionPlan{}, err
	}
	if max.Valid {
		n := int(max.Int64)
		p.MaxAnalysesPerMonth = &n
	}
	return p, nil
}
