package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

type stubVerifier struct {
	verifyFn func(ctx context.Context, token string) (*domain.Identity, error)
}

func (s *stubVerifier) VerifyAccessToken(ctx context.Context, token string) (*domain.Identity, error) {
	return s.verifyFn(ctx, token)
}

func acceptToken(want string) *stubVerifier {
	return &stubVerifier{verifyFn: func(_ context.Context, token string) (*domain.Identity, error) {
		if token != want {
			return nil, domain.ErrUnauthenticated
		}
		return &domain.Identity{UserID: "u-1", Email: "alice@example.com", Role: domain.RolePatient}, nil
	}}
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Authenticate(acceptToken("good"), zerolog.Nop())(func(c echo.Context) error {
		called = true
		id, ok := IdentityFrom(c)
		if !ok || id.UserID != "u-1" || id.Role != domain.RolePatient {
			t.Fatalf("identity not set: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuthenticate_CookieWinsOverHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "good"})
	req.Header.Set("Authorization", "Bearer stale")
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Authenticate(acceptToken("good"), zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("expected cookie token to be used, got %v", err)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	handler := Authenticate(acceptToken("good"), zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticate_InvalidHeaderFormat(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token good")
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Authenticate(acceptToken("good"), zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticate_UpstreamFailureFailsClosed(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	c := e.NewContext(req, httptest.NewRecorder())

	verifier := &stubVerifier{verifyFn: func(context.Context, string) (*domain.Identity, error) {
		return nil, context.DeadlineExceeded
	}}
	handler := Authenticate(verifier, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
