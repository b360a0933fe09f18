package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// Session cookie names set by the auth service on login.
const (
	AccessCookie  = "token"
	RefreshCookie = "refreshToken"
)

// Authenticate resolves the access token through verifier and injects the
// caller identity into the context. The token is read from the session cookie
// first, then from the Authorization header. Any verification failure is a
// 401; the cause is only logged.
func Authenticate(verifier ports.TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if ck, err := c.Cookie(AccessCookie); err == nil {
				token = ck.Value
			}
			if token == "" {
				token = BearerToken(c)
			}
			if token == "" {
				return domain.ErrUnauthenticated
			}

			id, err := verifier.VerifyAccessToken(c.Request().Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("token rejected")
				return domain.ErrUnauthenticated
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when the header is missing or malformed.
func BearerToken(c echo.Context) string {
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
