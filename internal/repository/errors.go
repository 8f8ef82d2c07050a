// Package repository implements raw-SQL MySQL persistence for accounts,
// sessions, outstanding tokens, plans, payments, patients and analyses.
// Sentinel errors defined here let higher layers distinguish failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Handlers map it
// to 404, or to a generic credential failure on auth paths.
var ErrNotFound = errors.New("not found")

// ErrPhoneExists is returned when registration collides with an
// existing normalized phone number.
var ErrPhoneExists = errors.New("phone already exists")
