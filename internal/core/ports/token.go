package ports

import (
	"context"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// TokenVerifier resolves an access token to the live identity behind it.
// Implementations fail closed: any doubt is an error.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*domain.Identity, error)
}
