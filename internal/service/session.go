package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/model"
)

// SessionStore is the durable registry of currently-valid refresh-token
// sessions. Implemented by repository.SessionRepo; tests use an
// in-memory fake.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, jti, deviceInfo string) error
	ListByUser(ctx context.Context, userID uint64) ([]model.ActiveSession, error)
	DeleteByJTI(ctx context.Context, jti string) error
}

// TokenLedger is the outstanding-token ledger used for refresh-token
// revocation. Implemented by repository.TokenRepo.
type TokenLedger interface {
	Record(ctx context.Context, userID uint64, jti, token string, expiresAt time.Time) error
	Blacklist(ctx context.Context, jti string) (bool, error)
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// RevocationOutcome describes how far a single session revocation got.
// The session cap favors availability over guaranteed token revocation:
// a deleted row without a ledger update is acceptable, a row that could
// not be deleted is not.
type RevocationOutcome int

const (
	// Revoked: ledger blacklisted and session row deleted.
	Revoked RevocationOutcome = iota
	// RevokedWithoutLedgerUpdate: session row deleted but the ledger
	// had no row for the jti or was unreachable.
	RevokedWithoutLedgerUpdate
	// RevocationFailed: the session row itself could not be deleted.
	RevocationFailed
)

// SessionService owns session bookkeeping: registering sessions at
// login, enforcing the per-role quota by revoking the oldest excess
// sessions, and the delete-then-insert swap performed on refresh.
type SessionService struct {
	Sessions SessionStore
	Ledger   TokenLedger
	Log      zerolog.Logger
}

func NewSessionService(sessions SessionStore, ledger TokenLedger, log zerolog.Logger) *SessionService {
	return &SessionService{Sessions: sessions, Ledger: ledger, Log: log}
}

// RecordToken mirrors a freshly issued refresh token into the ledger,
// best-effort: a token the ledger never saw simply cannot be
// blacklisted later, which the revocation path tolerates.
func (s *SessionService) RecordToken(ctx context.Context, userID uint64, jti, token string, expiresAt time.Time) {
	if err := s.Ledger.Record(ctx, userID, jti, token, expiresAt); err != nil {
		s.Log.Warn().Err(err).Str("jti", jti).Msg("outstanding token record failed")
	}
}

// Register inserts a new session row for the user and immediately
// enforces the quota in the same logical operation. Enforcement runs
// after insertion, so the registry may briefly hold quota+1 rows.
// Session-store failures are fatal to the caller's login/refresh.
func (s *SessionService) Register(ctx context.Context, user *model.User, jti, deviceInfo string) error {
	if err := s.Sessions.Create(ctx, user.ID, jti, deviceInfo); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return s.EnforceQuota(ctx, user)
}

// EnforceQuota lists the user's sessions oldest first and revokes the
// excess beyond the role quota. Two racing logins can both pass
// enforcement and momentarily exceed the quota; any later register or
// refresh corrects the count.
func (s *SessionService) EnforceQuota(ctx context.Context, user *model.User) error {
	sessions, err := s.Sessions.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	excess := len(sessions) - user.MaxConcurrentSessions()
	for i := 0; i < excess; i++ {
		switch outcome := s.revoke(ctx, sessions[i]); outcome {
		case RevocationFailed:
			return fmt.Errorf("revoke session %s: store failure", sessions[i].RefreshJTI)
		case RevokedWithoutLedgerUpdate:
			s.Log.Warn().Str("jti", sessions[i].RefreshJTI).Uint64("user_id", user.ID).
				Msg("session revoked without ledger update")
		}
	}
	return nil
}

// revoke blacklists the session's jti in the ledger when possible, then
// deletes the session row. Ledger failures are swallowed; the cap holds
// even when revocation is degraded.
func (s *SessionService) revoke(ctx context.Context, sess model.ActiveSession) RevocationOutcome {
	found, err := s.Ledger.Blacklist(ctx, sess.RefreshJTI)
	if err != nil {
		s.Log.Warn().Err(err).Str("jti", sess.RefreshJTI).Msg("ledger blacklist failed")
	}
	if delErr := s.Sessions.DeleteByJTI(ctx, sess.RefreshJTI); delErr != nil {
		s.Log.Error().Err(delErr).Str("jti", sess.RefreshJTI).Msg("session delete failed")
		return RevocationFailed
	}
	if err != nil || !found {
		return RevokedWithoutLedgerUpdate
	}
	return Revoked
}

// IsRevoked reports whether a refresh jti has been blacklisted. Used by
// the refresh path for replay rejection; a ledger read failure here is
// fatal (the caller cannot prove the token is still good).
func (s *SessionService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.Ledger.IsBlacklisted(ctx, jti)
}

// SwapOnRefresh retires the old session and registers the new one as a
// single conceptual swap: the old jti is blacklisted (token rotation)
// and its row deleted, the new token is recorded and its row inserted.
// Quota enforcement is deliberately not re-run: the account was within
// quota before the swap and the swap leaves the count unchanged.
func (s *SessionService) SwapOnRefresh(ctx context.Context, user *model.User, oldJTI string, newJTI, newToken string, newExpiry time.Time, deviceInfo string) error {
	if oldJTI != "" {
		if _, err := s.Ledger.Blacklist(ctx, oldJTI); err != nil {
			s.Log.Warn().Err(err).Str("jti", oldJTI).Msg("rotated token blacklist failed")
		}
		if err := s.Sessions.DeleteByJTI(ctx, oldJTI); err != nil {
			return fmt.Errorf("retire session: %w", err)
		}
	}
	s.RecordToken(ctx, user.ID, newJTI, newToken, newExpiry)
	if err := s.Sessions.Create(ctx, user.ID, newJTI, deviceInfo); err != nil {
		return fmt.Errorf("register refreshed session: %w", err)
	}
	return nil
}

// Drop removes a single session on explicit logout: blacklist the jti
// (best effort) and delete the row.
func (s *SessionService) Drop(ctx context.Context, jti string) error {
	if _, err := s.Ledger.Blacklist(ctx, jti); err != nil {
		s.Log.Warn().Err(err).Str("jti", jti).Msg("logout blacklist failed")
	}
	if err := s.Sessions.DeleteByJTI(ctx, jti); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	return nil
}
