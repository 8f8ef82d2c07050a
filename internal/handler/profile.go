package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/service"
)

// ProfileHandler serves the authenticated account's own profile.
type ProfileHandler struct {
	Users *repository.UserRepo
	Auth  *service.AuthService
	Log   zerolog.Logger
}

func NewProfileHandler(users *repository.UserRepo, auth *service.AuthService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{Users: users, Auth: auth, Log: log}
}

type updateProfileRequest struct {
	Name         string  `json:"name"`
	LinkedDoctor *uint64 `json:"linked_doctor"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Me handles GET /v1/profile.
func (h *ProfileHandler) Me(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return respondError(c, http.StatusUnauthorized, "account no longer exists")
	}
	if err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("profile load failed")
		return respondError(c, http.StatusInternalServerError, "could not load profile")
	}
	return respondOK(c, http.StatusOK, toUserPayload(u))
}

// Update handles PUT /v1/profile. Phone and role are immutable; only
// the display name and the staff link can change.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return respondError(c, http.StatusBadRequest, "name is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "account no longer exists")
	}
	link := u.LinkedDoctorID
	if req.LinkedDoctor != nil {
		link = req.LinkedDoctor
	}
	if err := h.Users.UpdateProfile(ctx, uid, req.Name, link); err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("profile update failed")
		return respondError(c, http.StatusInternalServerError, "could not update profile")
	}
	updated, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not load profile")
	}
	return respondOK(c, http.StatusOK, toUserPayload(updated))
}

// ChangePassword handles POST /v1/profile/change-password. Existing
// sessions stay valid; only the credential changes.
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.NewPassword) < 8 {
		return respondError(c, http.StatusBadRequest, "new password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "account no longer exists")
	}
	err = h.Auth.ChangePassword(ctx, u, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrPasswordMismatch):
		return respondError(c, http.StatusBadRequest, "current password is incorrect")
	case err != nil:
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("password change failed")
		return respondError(c, http.StatusInternalServerError, "could not change password")
	}
	return respondMessage(c, http.StatusOK, "password changed", nil)
}
