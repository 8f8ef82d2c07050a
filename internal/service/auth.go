package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/utils"
)

// UserStore is the credential/account store consumed by the auth core.
// Implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u model.User, password string, cost int) (uint64, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	StartTrial(ctx context.Context, id uint64, endsAt time.Time) error
	UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
}

// AuthService wires the login pipeline: rate limiter check, credential
// verification, token issuance, session registration and quota
// enforcement. The same pipeline (minus the limiter) backs register and
// refresh.
type AuthService struct {
	Users    UserStore
	Sessions *SessionService
	Limiter  *LoginLimiter

	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	TrialDays      int

	Log zerolog.Logger
}

// AuthResult carries the authenticated user and its fresh token pair.
type AuthResult struct {
	User   model.User
	Tokens utils.TokenPair
}

// RegisterInput is the validated payload for account creation. Phone is
// raw; the service normalizes it. LinkedDoctor may be an account ID or
// a phone number in any accepted spelling.
type RegisterInput struct {
	Phone        string
	Name         string
	Password     string
	Role         model.Role
	LinkedDoctor string
	DeviceInfo   string
}

// Login runs the full login pipeline for a phone/password pair.
// Returns ErrThrottled before any store access when the rate limit is
// exhausted, ErrInvalidCredentials for every credential failure, and a
// wrapped store error (→ 500) when the account or session store is
// unavailable.
func (a *AuthService) Login(ctx context.Context, phone, password, deviceInfo string) (AuthResult, error) {
	norm := utils.NormalizePhone(phone)

	if a.Limiter.Throttled(ctx, norm) {
		return AuthResult{}, ErrThrottled
	}

	u, err := a.Users.GetByPhone(ctx, norm)
	if errors.Is(err, repository.ErrNotFound) {
		a.Limiter.RecordFailure(ctx, norm)
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("load account: %w", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		a.Limiter.RecordFailure(ctx, norm)
		return AuthResult{}, ErrInvalidCredentials
	}

	res, err := a.issueAndRegister(ctx, &u, deviceInfo)
	if err != nil {
		return AuthResult{}, err
	}
	a.Limiter.Clear(ctx, norm)
	return res, nil
}

// Register creates an account and starts a session for it immediately,
// so new users land in the app already logged in. Doctors get a trial:
// subscription active until TrialDays from now.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	u := model.User{
		Phone:              utils.NormalizePhone(in.Phone),
		Name:               in.Name,
		Role:               in.Role,
		SubscriptionStatus: model.SubscriptionInactive,
	}
	if in.LinkedDoctor != "" {
		id, err := a.resolveLinkedDoctor(ctx, in.LinkedDoctor)
		if err != nil {
			return AuthResult{}, err
		}
		u.LinkedDoctorID = id
	}

	id, err := a.Users.Create(ctx, u, in.Password, a.BcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	if in.Role == model.RoleDoctor {
		endsAt := time.Now().UTC().Add(time.Duration(a.TrialDays) * 24 * time.Hour)
		if err := a.Users.StartTrial(ctx, id, endsAt); err != nil {
			return AuthResult{}, fmt.Errorf("start trial: %w", err)
		}
	}

	created, err := a.Users.GetByID(ctx, id)
	if err != nil {
		return AuthResult{}, fmt.Errorf("load created account: %w", err)
	}
	return a.issueAndRegister(ctx, &created, in.DeviceInfo)
}

// Refresh exchanges a valid refresh token for a new pair, performing
// the session swap: the old jti's row is deleted, the new jti's row is
// inserted, total count unchanged. Blacklisted jtis never refresh.
func (a *AuthService) Refresh(ctx context.Context, rawRefresh, deviceInfo string) (AuthResult, error) {
	claims, err := utils.ParseRefreshToken(a.JWTSecret, rawRefresh)
	if err != nil {
		return AuthResult{}, ErrInvalidRefresh
	}
	revoked, err := a.Sessions.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return AuthResult{}, ErrInvalidRefresh
	}

	u, err := a.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, ErrInvalidRefresh
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("load account: %w", err)
	}
	if !u.IsActive {
		return AuthResult{}, ErrInvalidRefresh
	}

	pair, err := utils.NewTokenPair(a.JWTSecret, u.ID, string(u.Role), a.AccessTTLMin, a.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := a.Sessions.SwapOnRefresh(ctx, &u, claims.JTI, pair.JTI, pair.Refresh, pair.RefreshExp, deviceInfo); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Tokens: pair}, nil
}

// Logout terminates the session owning the given refresh token.
func (a *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	claims, err := utils.ParseRefreshToken(a.JWTSecret, rawRefresh)
	if err != nil {
		return ErrInvalidRefresh
	}
	return a.Sessions.Drop(ctx, claims.JTI)
}

// ChangePassword verifies the old password before storing the new hash.
func (a *AuthService) ChangePassword(ctx context.Context, u model.User, oldPassword, newPassword string) error {
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return ErrPasswordMismatch
	}
	return a.Users.UpdatePassword(ctx, u.ID, newPassword, a.BcryptCost)
}

// issueAndRegister mints a token pair, mirrors the refresh token into
// the ledger (best effort) and registers the session with quota
// enforcement (fatal on store failure).
func (a *AuthService) issueAndRegister(ctx context.Context, u *model.User, deviceInfo string) (AuthResult, error) {
	pair, err := utils.NewTokenPair(a.JWTSecret, u.ID, string(u.Role), a.AccessTTLMin, a.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	a.Sessions.RecordToken(ctx, u.ID, pair.JTI, pair.Refresh, pair.RefreshExp)
	if err := a.Sessions.Register(ctx, u, pair.JTI, deviceInfo); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: *u, Tokens: pair}, nil
}

// resolveLinkedDoctor turns a linked-doctor reference (numeric ID or
// phone) into an account ID. Unknown references register the staff
// account without a link rather than failing registration.
func (a *AuthService) resolveLinkedDoctor(ctx context.Context, ref string) (*uint64, error) {
	if id, ok := parseUint(ref); ok {
		u, err := a.Users.GetByID(ctx, id)
		if err == nil {
			return &u.ID, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("resolve linked doctor: %w", err)
		}
	}
	u, err := a.Users.GetByPhone(ctx, utils.NormalizePhone(ref))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve linked doctor: %w", err)
	}
	return &u.ID, nil
}

func parseUint(s string) (uint64, bool) {
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + uint64(r-'0')
	}
	return n, s != ""
}
