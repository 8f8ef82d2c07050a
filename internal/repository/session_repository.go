package repository

import (
	"context"
	"database/sql"

	"github.com/medoraai/clinic-backend/internal/model"
)

// SessionRepo persists the active-session registry. One row per
// currently-valid refresh token, keyed by the token's jti.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row. created_at is stamped by the database
// so ordering among racing inserts follows commit order.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, jti, deviceInfo string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO active_sessions (user_id, refresh_jti, device_info) VALUES (?,?,?)",
		userID, jti, deviceInfo)
	return err
}

// ListByUser returns all sessions for an account ordered oldest first.
// The quota enforcer relies on this ordering to pick revocation victims.
func (r *SessionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ActiveSession, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, refresh_jti, device_info, created_at FROM active_sessions WHERE user_id=? ORDER BY created_at ASC, id ASC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActiveSession
	for rows.Next() {
		var s model.ActiveSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.RefreshJTI, &s.DeviceInfo, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteByJTI removes the session row owning the given jti. Deleting a
// jti with no row is not an error: refresh cleanup is best-effort.
func (r *SessionRepo) DeleteByJTI(ctx context.Context, jti string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM active_sessions WHERE refresh_jti=?", jti)
	return err
}
