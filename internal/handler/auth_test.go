package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Validation runs before any service call, so these tests exercise the
// request checks and the error envelope with no backend wired at all.

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

type envelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v; body %s", err, rec.Body.String())
	}
	return env
}

func TestLoginValidation(t *testing.T) {
	h := NewAuthHandler(nil, zerolog.Nop())

	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing password", `{"phone":"+998901234567"}`},
		{"missing phone", `{"password":"secret-pass"}`},
		{"malformed phone", `{"phone":"12345","password":"secret-pass"}`},
		{"broken json", `{"phone":`},
	}
	for _, c := range cases {
		rec := postJSON(t, h.Login, "/v1/auth/login", c.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.name, rec.Code)
			continue
		}
		env := decodeEnvelope(t, rec)
		if env.Success || env.Error == nil || env.Error.Code != http.StatusBadRequest {
			t.Errorf("%s: envelope = %+v, want success=false code=400", c.name, env)
		}
	}
}

func TestRegisterValidationDetails(t *testing.T) {
	h := NewAuthHandler(nil, zerolog.Nop())

	rec := postJSON(t, h.Register, "/v1/auth/register",
		`{"phone":"bad","name":"","password":"short","role":"superuser"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatalf("missing error envelope: %s", rec.Body.String())
	}
	for _, field := range []string{"phone", "name", "password", "role"} {
		if env.Error.Details[field] == "" {
			t.Errorf("missing validation detail for %s: %v", field, env.Error.Details)
		}
	}
}

func TestRegisterStaffRequiresLink(t *testing.T) {
	h := NewAuthHandler(nil, zerolog.Nop())

	rec := postJSON(t, h.Register, "/v1/auth/register",
		`{"phone":"+998901234567","name":"Nurse","password":"secret-pass","role":"staff"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Details["linked_doctor"] == "" {
		t.Fatalf("expected linked_doctor detail, got %s", rec.Body.String())
	}
}

func TestRefreshAndLogoutRequireToken(t *testing.T) {
	h := NewAuthHandler(nil, zerolog.Nop())

	for name, fn := range map[string]echo.HandlerFunc{"refresh": h.Refresh, "logout": h.Logout} {
		rec := postJSON(t, fn, "/v1/auth/"+name, `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s without token: status = %d, want 400", name, rec.Code)
		}
	}
}
