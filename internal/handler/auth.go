package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/service"
	"github.com/medoraai/clinic-backend/internal/utils"
)

// AuthHandler exposes login, registration, token refresh and logout.
type AuthHandler struct {
	Auth *service.AuthService
	Log  zerolog.Logger
}

func NewAuthHandler(auth *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Log: log}
}

type loginRequest struct {
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	DeviceInfo string `json:"device_info"`
}

type registerRequest struct {
	Phone           string `json:"phone"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
	LinkedDoctor    string `json:"linked_doctor"`
	DeviceInfo      string `json:"device_info"`
}

type refreshRequest struct {
	Refresh    string `json:"refresh"`
	DeviceInfo string `json:"device_info"`
}

type tokenPayload struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func authPayload(res service.AuthResult) echo.Map {
	return echo.Map{
		"user":   toUserPayload(res.User),
		"tokens": tokenPayload{Access: res.Tokens.Access, Refresh: res.Tokens.Refresh},
	}
}

// Login handles POST /v1/auth/login. Every credential failure returns
// the same message so callers cannot probe which phones are registered.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Phone == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "phone and password are required")
	}
	if !utils.ValidPhone(req.Phone) {
		return respondError(c, http.StatusBadRequest, "invalid phone number format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Phone, req.Password, req.DeviceInfo)
	switch {
	case errors.Is(err, service.ErrThrottled):
		return respondError(c, http.StatusTooManyRequests, "too many login attempts, try again later")
	case errors.Is(err, service.ErrInvalidCredentials):
		return respondError(c, http.StatusBadRequest, "invalid phone number or password")
	case err != nil:
		h.Log.Error().Err(err).Msg("login failed")
		return respondError(c, http.StatusInternalServerError, "could not log in")
	}
	return respondOK(c, http.StatusOK, authPayload(res))
}

// Register handles POST /v1/auth/register and logs the new account in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if details := validateRegister(req); len(details) > 0 {
		return respondErrorDetails(c, http.StatusBadRequest, "validation failed", details)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Register(ctx, service.RegisterInput{
		Phone:        req.Phone,
		Name:         req.Name,
		Password:     req.Password,
		Role:         model.Role(req.Role),
		LinkedDoctor: req.LinkedDoctor,
		DeviceInfo:   req.DeviceInfo,
	})
	switch {
	case errors.Is(err, repository.ErrPhoneExists):
		return respondError(c, http.StatusConflict, "an account with this phone number already exists")
	case err != nil:
		h.Log.Error().Err(err).Msg("registration failed")
		return respondError(c, http.StatusInternalServerError, "could not register")
	}
	return respondOK(c, http.StatusCreated, authPayload(res))
}

func validateRegister(req registerRequest) map[string]string {
	details := map[string]string{}
	if req.Phone == "" {
		details["phone"] = "required"
	} else if !utils.ValidPhone(req.Phone) {
		details["phone"] = "invalid phone number format"
	}
	if req.Name == "" {
		details["name"] = "required"
	}
	if len(req.Password) < 8 {
		details["password"] = "must be at least 8 characters"
	} else if req.PasswordConfirm != "" && req.Password != req.PasswordConfirm {
		details["password_confirm"] = "passwords do not match"
	}
	if !model.Role(req.Role).Valid() {
		details["role"] = "must be one of clinic, doctor, staff"
	}
	if model.Role(req.Role) == model.RoleStaff && req.LinkedDoctor == "" {
		details["linked_doctor"] = "required for staff accounts"
	}
	return details
}

// Refresh handles POST /v1/auth/refresh, rotating the session's token
// pair. A revoked or malformed refresh token yields 401 so the client
// knows to re-login instead of retrying.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Refresh == "" {
		return respondError(c, http.StatusBadRequest, "refresh token is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, req.Refresh, req.DeviceInfo)
	switch {
	case errors.Is(err, service.ErrInvalidRefresh):
		return respondError(c, http.StatusUnauthorized, "refresh token is invalid or has been revoked")
	case err != nil:
		h.Log.Error().Err(err).Msg("refresh failed")
		return respondError(c, http.StatusInternalServerError, "could not refresh tokens")
	}
	return respondOK(c, http.StatusOK, authPayload(res))
}

// Logout handles POST /v1/auth/logout. Logging out an already-dead
// session still succeeds; the end state is the same.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Refresh == "" {
		return respondError(c, http.StatusBadRequest, "refresh token is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.Refresh); err != nil && !errors.Is(err, service.ErrInvalidRefresh) {
		h.Log.Error().Err(err).Msg("logout failed")
		return respondError(c, http.StatusInternalServerError, "could not log out")
	}
	return respondMessage(c, http.StatusOK, "logged out", nil)
}
