package model

import "time"

// Role identifies the kind of account. Staff accounts never carry
// subscription state of their own; it is inherited through the linked
// account (one level, see SubscriptionOwnerID).
type Role string

const (
	RoleClinic Role = "clinic"
	RoleDoctor Role = "doctor"
	RoleStaff  Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClinic, RoleDoctor, RoleStaff:
		return true
	}
	return false
}

// Subscription status values stored in users.subscription_status.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionPending  = "pending"
)

// User mirrors the 'users' table. Phone numbers are stored normalized
// (+998XXXXXXXXX) and looked up by exact match.
type User struct {
	ID                 uint64
	Phone              string
	Name               string
	PasswordHash       string
	Role               Role
	LinkedDoctorID     *uint64 // staff only: account whose subscription is inherited
	PlanID             *uint64
	SubscriptionStatus string
	SubscriptionExpiry *time.Time
	TrialEndsAt        *time.Time
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MaxConcurrentSessions is the session quota per account. A clinic
// subscription may be shared by two front-desk devices; doctors and
// staff get a single session. The cap is an anti-sharing deterrent,
// not a security boundary.
func (u *User) MaxConcurrentSessions() int {
	if u.Role == RoleClinic {
		return 2
	}
	return 1
}

// SubscriptionOwnerID returns the ID of the account that actually holds
// the subscription state for u. For staff with a linked account that is
// the linked account; everyone else owns their own state. Resolution is
// one level only.
func (u *User) SubscriptionOwnerID() uint64 {
	if u.Role == RoleStaff && u.LinkedDoctorID != nil {
		return *u.LinkedDoctorID
	}
	return u.ID
}

// HasActiveSubscription reports whether the account's own subscription
// state is usable at the given instant. Callers must resolve the
// effective owner first; staff accounts hold no state and always report
// false here.
func (u *User) HasActiveSubscription(now time.Time) bool {
	if u.Role == RoleStaff {
		return false
	}
	if u.SubscriptionStatus != SubscriptionActive {
		return false
	}
	if u.TrialEndsAt != nil && now.Before(*u.TrialEndsAt) {
		return true
	}
	if u.SubscriptionExpiry != nil && now.Before(*u.SubscriptionExpiry) {
		return true
	}
	// Legacy rows with status=active and no expiry at all stay active.
	return u.TrialEndsAt == nil && u.SubscriptionExpiry == nil
}

// SubscriptionPlan mirrors the 'subscription_plans' table.
type SubscriptionPlan struct {
	ID                  uint64
	Name                string
	Slug                string
	PlanType            string // clinic | doctor
	Description         string
	PriceMonthly        int64 // minor currency units
	PriceCurrency       string
	DurationDays        int
	IsTrial             bool
	TrialDays           int
	MaxAnalysesPerMonth *int // nil = unlimited
	SortOrder           int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
