package model

import "time"

// OutstandingToken mirrors the 'outstanding_tokens' ledger. Every live
// refresh token is recorded here keyed by its jti so it can be
// blacklisted later; BlacklistedAt is null while the token is still
// good. The ledger is a supporting structure: the session cap works
// even when it is unreachable, and revocation then degrades to
// best-effort (row deletion without blacklist).
type OutstandingToken struct {
	ID            uint64
	UserID        uint64
	JTI           string
	Token         string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	BlacklistedAt *time.Time
}
