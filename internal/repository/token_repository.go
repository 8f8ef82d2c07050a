package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/medoraai/clinic-backend/internal/model"
)

// TokenRepo persists the outstanding-token ledger used for refresh
// token revocation. Rows are keyed by the token's jti; blacklisting is
// a nullable timestamp so both Record and Blacklist are idempotent.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Record mirrors a freshly issued refresh token into the ledger.
// INSERT IGNORE gives get-or-create semantics: re-recording the same
// jti never creates a duplicate row.
func (r *TokenRepo) Record(ctx context.Context, userID uint64, jti, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO outstanding_tokens (user_id, jti, token, expires_at) VALUES (?,?,?,?)",
		userID, jti, token, expiresAt)
	return err
}

// Blacklist marks the ledger row for jti as revoked. It returns whether
// a ledger row existed at all; blacklisting an already-blacklisted or
// unknown jti is not an error.
func (r *TokenRepo) Blacklist(ctx context.Context, jti string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE outstanding_tokens SET blacklisted_at=NOW() WHERE jti=? AND blacklisted_at IS NULL",
		jti)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return true, nil
	}
	// Distinguish "no row" from "already blacklisted".
	if _, err := r.GetByJTI(ctx, jti); errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// GetByJTI fetches one ledger row.
func (r *TokenRepo) GetByJTI(ctx context.Context, jti string) (model.OutstandingToken, error) {
	var (
		t           model.OutstandingToken
		blacklisted sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, jti, token, created_at, expires_at, blacklisted_at "+
			"FROM outstanding_tokens WHERE jti=? LIMIT 1", jti).
		Scan(&t.ID, &t.UserID, &t.JTI, &t.Token, &t.CreatedAt, &t.ExpiresAt, &blacklisted)
	if errors.Is(err, sql.ErrNoRows) {
		return model.OutstandingToken{}, ErrNotFound
	}
	if blacklisted.Valid {
		ts := blacklisted.Time
		t.BlacklistedAt = &ts
	}
	return t, err
}

// IsBlacklisted reports whether the jti has been revoked. Unknown jtis
// are not blacklisted: a token whose ledger row was never written (e.g.
// the ledger was unavailable at issuance) still refreshes, per the
// availability-over-revocation policy.
func (r *TokenRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var blacklisted sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT blacklisted_at FROM outstanding_tokens WHERE jti=? LIMIT 1", jti).
		Scan(&blacklisted)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return blacklisted.Valid, nil
}

// PurgeExpired removes ledger rows whose tokens expired before the
// cutoff. Called opportunistically; losing old rows is harmless since
// expiry already rejects those tokens.
func (r *TokenRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM outstanding_tokens WHERE expires_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
