// Package service implements the authentication core: credential
// verification, token issuance bookkeeping, the session registry with
// its per-role quota, and the login rate limiter. Handlers translate
// the sentinel errors below into the JSON error envelope.
package service

import "errors"

// ErrInvalidCredentials covers every credential failure: unknown phone,
// wrong password, deactivated account. The causes are deliberately
// indistinguishable to prevent account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrThrottled is returned when the login rate limit for a phone number
// has been reached. Maps to HTTP 429.
var ErrThrottled = errors.New("too many login attempts")

// ErrInvalidRefresh covers every refresh-token failure: bad signature,
// expiry, wrong token type, blacklisted jti, unknown or inactive
// account. Maps to HTTP 401.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// ErrPasswordMismatch is returned by change-password when the old
// password does not verify.
var ErrPasswordMismatch = errors.New("old password is incorrect")
