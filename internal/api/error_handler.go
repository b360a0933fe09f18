package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/handler"
	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Answers mapped errors with the sentinel message, never the wrapped cause.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := handler.ErrorResponse{}
		var code int
		code, resp.Error, resp.Details = resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

// statusFor lists the sentinel errors with a fixed status. Order matters only
// for errors that wrap more than one sentinel.
var statusFor = []struct {
	err  error
	code int
}{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrEmailNotVerified, http.StatusUnauthorized},
	{domain.ErrInvalidRefreshToken, http.StatusUnauthorized},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},

	{domain.ErrInvalidOrExpiredCode, http.StatusBadRequest},
	{domain.ErrAlreadyVerified, http.StatusBadRequest},
	{domain.ErrSelfDelete, http.StatusBadRequest},

	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrPatientNotFound, http.StatusNotFound},
	{domain.ErrDoctorNotFound, http.StatusNotFound},
	{domain.ErrAppointmentNotFound, http.StatusNotFound},
	{domain.ErrTestResultNotFound, http.StatusNotFound},
	{domain.ErrReferralNotFound, http.StatusNotFound},
	{domain.ErrRecommendationNotFound, http.StatusNotFound},

	{domain.ErrDuplicateEmail, http.StatusConflict},
	{domain.ErrDuplicateProfile, http.StatusConflict},
	{domain.ErrSlotTaken, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},

	{domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, map[string]string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error(), ve.Fields
	}

	// Clients get the sentinel text only; wrapped causes stay in the log.
	for _, s := range statusFor {
		if errors.Is(err, s.err) {
			switch {
			case s.code == http.StatusServiceUnavailable:
				log.Warn().Err(err).Str("path", c.Path()).Msg("upstream unavailable")
			case err != s.err:
				log.Debug().Err(err).Str("path", c.Path()).Int("status", s.code).Msg("request failed")
			}
			return s.code, s.err.Error(), nil
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error", nil
}
