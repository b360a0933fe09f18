package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// ServiceKeyHeader carries the shared secret on service-to-service calls.
const ServiceKeyHeader = "X-Service-Key"

// ServiceKey admits only requests presenting the shared service key. An empty
// configured key rejects everything.
func ServiceKey(key string) echo.MiddlewareFunc {
	want := []byte(key)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(ServiceKeyHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				return domain.ErrUnauthenticated
			}
			return next(c)
		}
	}
}
