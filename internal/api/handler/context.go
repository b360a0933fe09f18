package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// caller extracts the identity injected by the Authenticate middleware and
// fails fast before any service call when it is absent. A missing identity
// means the route was wired without authentication.
func caller(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.UserID == "" || id.Role == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return *id, nil
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("body", "invalid payload")
	}
	return c.Validate(req)
}

// bindOptional decodes an optional body. An empty body leaves req untouched;
// a malformed one is still a validation error.
func bindOptional(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("body", "invalid payload")
	}
	return nil
}

// pageQuery reads the optional page and limit query parameters.
func pageQuery(c echo.Context) (page, limit int, err error) {
	err = echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		BindError()
	if err != nil {
		return 0, 0, domain.NewValidationError("page", "page and limit must be integers")
	}
	return page, limit, nil
}
