package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/handler"
	"github.com/carelink/healthcare-portal/internal/core/domain"
)

func render(t *testing.T, err error) (int, handler.ErrorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return rec.Code, body
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		code     int
	}{
		{domain.ErrInvalidCredentials, domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrEmailNotVerified, domain.ErrEmailNotVerified, http.StatusUnauthorized},
		{domain.ErrForbidden, domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidOrExpiredCode, domain.ErrInvalidOrExpiredCode, http.StatusBadRequest},
		{domain.ErrSelfDelete, domain.ErrSelfDelete, http.StatusBadRequest},
		{fmt.Errorf("cancel: %w", domain.ErrAppointmentNotFound), domain.ErrAppointmentNotFound, http.StatusNotFound},
		{domain.ErrDuplicateEmail, domain.ErrDuplicateEmail, http.StatusConflict},
		{fmt.Errorf("%w: completed -> cancelled", domain.ErrInvalidTransition), domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrSlotTaken, domain.ErrSlotTaken, http.StatusConflict},
	}
	for _, tc := range cases {
		code, body := render(t, tc.err)
		if code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, code)
		}
		if body.Success || body.Error != tc.sentinel.Error() {
			t.Fatalf("%v: unexpected body %+v", tc.err, body)
		}
	}
}

func TestErrorHandler_WrappedCauseNotLeaked(t *testing.T) {
	err := fmt.Errorf("%w: token has invalid claims: token is expired", domain.ErrUnauthenticated)
	code, body := render(t, err)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if body.Error != domain.ErrUnauthenticated.Error() {
		t.Fatalf("wrapped cause leaked: %q", body.Error)
	}
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	ve := &domain.ValidationError{Fields: map[string]string{"email": "email is required", "password": "password must be at least 6 characters"}}
	code, body := render(t, ve)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body.Details["email"] != "email is required" || len(body.Details) != 2 {
		t.Fatalf("unexpected details %+v", body.Details)
	}
}

func TestErrorHandler_UpstreamHidesCause(t *testing.T) {
	code, body := render(t, fmt.Errorf("%w: dial tcp 10.0.0.5:5001: refused", domain.ErrUpstreamUnavailable))
	if code != http.StatusServiceUnavailable || body.Error != domain.ErrUpstreamUnavailable.Error() {
		t.Fatalf("unexpected %d %+v", code, body)
	}
}

func TestErrorHandler_EchoError(t *testing.T) {
	code, body := render(t, echo.NewHTTPError(http.StatusTooManyRequests, "too many requests"))
	if code != http.StatusTooManyRequests || body.Error != "too many requests" {
		t.Fatalf("unexpected %d %+v", code, body)
	}
}

func TestErrorHandler_UnknownIsGeneric(t *testing.T) {
	code, body := render(t, errors.New("mongo: connection pool exhausted"))
	if code != http.StatusInternalServerError || body.Error != "internal server error" {
		t.Fatalf("unexpected %d %+v", code, body)
	}
}
