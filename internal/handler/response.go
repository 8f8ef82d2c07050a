// Package handler implements the HTTP endpoints. Every response uses
// the stable envelope: {"success": true, "data": ...} or
// {"success": false, "error": {"code", "message", "details"}}. Clients
// depend on the envelope and the numeric code only, never on internal
// error types.
package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medoraai/clinic-backend/internal/model"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func respondOK(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func respondMessage(c echo.Context, status int, message string, data any) error {
	body := echo.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "error": errorBody{Code: status, Message: message}})
}

func respondErrorDetails(c echo.Context, status int, message string, details any) error {
	return c.JSON(status, echo.Map{"success": false, "error": errorBody{Code: status, Message: message, Details: details}})
}

// userPayload is the serialized account shape shared by auth and
// profile responses.
type userPayload struct {
	ID                 uint64     `json:"id"`
	Phone              string     `json:"phone"`
	Name               string     `json:"name"`
	Role               string     `json:"role"`
	LinkedDoctorID     *uint64    `json:"linked_doctor,omitempty"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry"`
	TrialEndsAt        *time.Time `json:"trial_ends_at"`
	IsActive           bool       `json:"is_active"`
	DateJoined         time.Time  `json:"date_joined"`
}

func toUserPayload(u model.User) userPayload {
	return userPayload{
		ID:                 u.ID,
		Phone:              u.Phone,
		Name:               u.Name,
		Role:               string(u.Role),
		LinkedDoctorID:     u.LinkedDoctorID,
		SubscriptionStatus: u.SubscriptionStatus,
		SubscriptionExpiry: u.SubscriptionExpiry,
		TrialEndsAt:        u.TrialEndsAt,
		IsActive:           u.IsActive,
		DateJoined:         u.CreatedAt,
	}
}

// currentUserID pulls the authenticated account id stored by JWTAuth.
func currentUserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get("user_id").(uint64)
	return uid, ok
}
