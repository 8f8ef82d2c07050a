package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func TestNewTokenPair(t *testing.T) {
	pair, err := NewTokenPair(testSecret, 42, "doctor", 15, 7)
	if err != nil {
		t.Fatalf("NewTokenPair: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("empty token in pair")
	}
	if pair.Access == pair.Refresh {
		t.Fatal("access and refresh tokens are identical")
	}
	if pair.JTI == "" {
		t.Fatal("missing refresh jti")
	}
	if !pair.RefreshExp.After(pair.AccessExp) {
		t.Fatalf("refresh expiry %v not after access expiry %v", pair.RefreshExp, pair.AccessExp)
	}
}

func TestParseRefreshTokenRoundTrip(t *testing.T) {
	pair, err := NewTokenPair(testSecret, 42, "clinic", 15, 7)
	if err != nil {
		t.Fatalf("NewTokenPair: %v", err)
	}
	claims, err := ParseRefreshToken(testSecret, pair.Refresh)
	if err != nil {
		t.Fatalf("ParseRefreshToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "clinic" {
		t.Errorf("Role = %q, want clinic", claims.Role)
	}
	if claims.JTI != pair.JTI {
		t.Errorf("JTI = %q, want %q", claims.JTI, pair.JTI)
	}
	if !claims.ExpiresAt.Equal(pair.RefreshExp.Truncate(time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, pair.RefreshExp.Truncate(time.Second))
	}
}

func TestParseRefreshTokenRejectsAccessToken(t *testing.T) {
	pair, err := NewTokenPair(testSecret, 42, "doctor", 15, 7)
	if err != nil {
		t.Fatalf("NewTokenPair: %v", err)
	}
	if _, err := ParseRefreshToken(testSecret, pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRefreshTokenRejectsWrongSecret(t *testing.T) {
	pair, err := NewTokenPair(testSecret, 42, "doctor", 15, 7)
	if err != nil {
		t.Fatalf("NewTokenPair: %v", err)
	}
	if _, err := ParseRefreshToken("other-secret", pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRefreshTokenRejectsExpired(t *testing.T) {
	now := time.Now().UTC()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 42,
		"typ": TokenTypeRefresh,
		"jti": "expired-jti",
		"iat": now.Add(-2 * time.Hour).Unix(),
		"exp": now.Add(-time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseRefreshToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRefreshTokenRejectsUnsignedAlg(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": 42,
		"typ": TokenTypeRefresh,
		"jti": "jti",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseRefreshToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRefreshTokenRejectsMissingClaims(t *testing.T) {
	now := time.Now().UTC()
	cases := map[string]jwt.MapClaims{
		"missing jti": {"sub": 42, "typ": TokenTypeRefresh, "exp": now.Add(time.Hour).Unix()},
		"missing sub": {"typ": TokenTypeRefresh, "jti": "x", "exp": now.Add(time.Hour).Unix()},
		"zero sub":    {"sub": 0, "typ": TokenTypeRefresh, "jti": "x", "exp": now.Add(time.Hour).Unix()},
		"missing typ": {"sub": 42, "jti": "x", "exp": now.Add(time.Hour).Unix()},
	}
	for name, claims := range cases {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("%s: sign: %v", name, err)
		}
		if _, err := ParseRefreshToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestParseRefreshTokenRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := ParseRefreshToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseRefreshToken(%q): err = %v, want ErrInvalidToken", raw, err)
		}
	}
}
