package model

import "time"

// ActiveSession is one currently-valid refresh-token session in the
// 'active_sessions' table. Rows are ordered by creation time ascending;
// the oldest rows are the first to go when an account exceeds its
// session quota.
//
// A session has no explicit "expired" state: token expiry is enforced
// by signature/claim validation at use time, independent of row
// presence. Rows disappear on logout, quota revocation, or when a
// refresh supersedes them.
type ActiveSession struct {
	ID         uint64
	UserID     uint64
	RefreshJTI string // unique jti claim of the owning refresh token
	DeviceInfo string
	CreatedAt  time.Time
}
