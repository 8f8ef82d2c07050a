package utils

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
    "github.com/google/uuid"
)

// Token type values carried in the "typ" claim.  Access tokens are
// short-lived and stateless; refresh tokens carry a unique session
// identifier (jti) and are mirrored into the outstanding-token ledger.
const (
    TokenTypeAccess  = "access"
    TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned when a token fails signature, expiry or
// claim validation.  Callers must not distinguish the causes.
var ErrInvalidToken = errors.New("invalid token")

// TokenPair is the result of one issuance: a signed access token, a
// signed refresh token, the refresh token's jti, and both expiry times.
type TokenPair struct {
    Access     string
    AccessExp  time.Time
    Refresh    string
    RefreshExp time.Time
    JTI        string // session identifier embedded in the refresh token
}

// RefreshClaims are the trusted claims extracted from a verified
// refresh token.
type RefreshClaims struct {
    UserID    uint64
    Role      string
    JTI       string
    ExpiresAt time.Time
}

// NewTokenPair builds and signs an HS256 access/refresh pair for a user.
// The access token carries sub, role, typ, jti, iat and exp; the refresh
// token carries the same shape with its own jti, which doubles as the
// session identifier in the registry.  TTLs are minutes for access and
// days for refresh, matching the configuration layer.
func NewTokenPair(secret string, userID uint64, role string, accessTTLMin, refreshTTLDays int) (TokenPair, error) {
    now := time.Now().UTC()
    accessExp := now.Add(time.Duration(accessTTLMin) * time.Minute)
    refreshExp := now.Add(time.Duration(refreshTTLDays) * 24 * time.Hour)
    jti := uuid.NewString()

    access, err := signToken(secret, jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "typ":  TokenTypeAccess,
        "jti":  uuid.NewString(),
        "iat":  now.Unix(),
        "exp":  accessExp.Unix(),
    })
    if err != nil {
        return TokenPair{}, fmt.Errorf("sign access: %w", err)
    }
    refresh, err := signToken(secret, jwt.MapClaims{
        "sub": userID,
        "role": role,
        "typ": TokenTypeRefresh,
        "jti": jti,
        "iat": now.Unix(),
        "exp": refreshExp.Unix(),
    })
    if err != nil {
        return TokenPair{}, fmt.Errorf("sign refresh: %w", err)
    }
    return TokenPair{
        Access:     access,
        AccessExp:  accessExp,
        Refresh:    refresh,
        RefreshExp: refreshExp,
        JTI:        jti,
    }, nil
}

func signToken(secret string, claims jwt.MapClaims) (string, error) {
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// ParseRefreshToken verifies the signature and expiry of a refresh
// token and returns its claims.  Nothing embedded in the token is
// trusted before this verification succeeds.  Tokens signed with a
// different method, expired tokens, and access tokens presented as
// refresh tokens all fail with ErrInvalidToken.
func ParseRefreshToken(secret, raw string) (RefreshClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return RefreshClaims{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return RefreshClaims{}, ErrInvalidToken
    }
    if typ, _ := claims["typ"].(string); typ != TokenTypeRefresh {
        return RefreshClaims{}, ErrInvalidToken
    }
    jti, _ := claims["jti"].(string)
    if jti == "" {
        return RefreshClaims{}, ErrInvalidToken
    }
    sub, ok := claims["sub"].(float64) // numeric claims decode as float64
    if !ok || sub <= 0 {
        return RefreshClaims{}, ErrInvalidToken
    }
    role, _ := claims["role"].(string)
    out := RefreshClaims{UserID: uint64(sub), Role: role, JTI: jti}
    if exp, ok := claims["exp"].(float64); ok {
        out.ExpiresAt = time.Unix(int64(exp), 0).UTC()
    }
    return out, nil
}
