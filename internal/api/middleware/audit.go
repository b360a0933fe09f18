package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

const auditResourceKey = "audit_resource_id"

// auditTimeout bounds the write after the response has been produced.
const auditTimeout = 3 * time.Second

// SetAuditResource names the record a handler touched, for Audit to pick up.
func SetAuditResource(c echo.Context, id string) {
	c.Set(auditResourceKey, id)
}

// Audit records who touched which medical record once the handler has run.
// Only successful requests by an authenticated caller are recorded. Write
// failures are logged and never change the response.
func Audit(recorder ports.AuditRecorder, action, resource string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			id, ok := IdentityFrom(c)
			status := c.Response().Status
			if err != nil || !ok || status >= 400 {
				return err
			}

			resourceID, _ := c.Get(auditResourceKey).(string)
			if resourceID == "" {
				resourceID = c.Param("id")
			}
			entry := &domain.AuditEntry{
				ID:         uuid.NewString(),
				UserID:     id.UserID,
				Role:       id.Role,
				Action:     action,
				Resource:   resource,
				ResourceID: resourceID,
				Method:     c.Request().Method,
				Path:       c.Request().URL.Path,
				Status:     status,
				IP:         c.RealIP(),
				At:         time.Now().UTC(),
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), auditTimeout)
			defer cancel()
			if rerr := recorder.Record(ctx, entry); rerr != nil {
				log.Warn().Err(rerr).
					Str("user_id", id.UserID).
					Str("action", action).
					Str("resource", resource).
					Msg("audit entry not recorded")
			}
			return nil
		}
	}
}
