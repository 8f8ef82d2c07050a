package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,phone,name,password_hash,role,linked_doctor_id,plan_id," +
	"subscription_status,subscription_expiry,trial_ends_at,is_active,created_at,updated_at"

// Create inserts a user and returns its ID. The phone must already be
// normalized by the caller.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (phone, name, password_hash, role, linked_doctor_id, subscription_status) VALUES (?,?,?,?,?,?)",
		u.Phone, u.Name, hash, string(u.Role), u.LinkedDoctorID, u.SubscriptionStatus)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrPhoneExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByPhone fetches a user by normalized phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", phone)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Phone, &u.Name, &u.PasswordHash, &role, &u.LinkedDoctorID, &u.PlanID,
		&u.SubscriptionStatus, &u.SubscriptionExpiry, &u.TrialEndsAt,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	u.Role = model.Role(role)
	return u, err
}

// UpdateProfile updates the mutable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string, linkedDoctorID *uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, linked_doctor_id=? WHERE id=?",
		name, linkedDoctorID, id)
	return err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// StartTrial marks a freshly registered doctor account active until the
// trial end date.
func (r *UserRepo) StartTrial(ctx context.Context, id uint64, endsAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET subscription_status=?, trial_ends_at=? WHERE id=?",
		model.SubscriptionActive, endsAt, id)
	return err
}

// SetSubscriptionStatus updates only the subscription status column
// (used when a payment receipt moves the account to pending).
func (r *UserRepo) SetSubscriptionStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET subscription_status=? WHERE id=?", status, id)
	return err
}

// EffectiveSubscriptionOwner resolves the account whose subscription
// state applies to u: staff follow their linked account one level, all
// other roles own their state. A dangling link degrades to the user
// itself (which then reports no active subscription).
func (r *UserRepo) EffectiveSubscriptionOwner(ctx context.Context, u model.User) (model.User, error) {
	ownerID := u.SubscriptionOwnerID()
	if ownerID == u.ID {
		return u, nil
	}
	owner, err := r.GetByID(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		return u, nil
	}
	return owner, err
}
