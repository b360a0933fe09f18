package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// DefaultVerifyTimeout bounds a token verification round trip.
const DefaultVerifyTimeout = 5 * time.Second

// AuthClient calls the auth service. It implements ports.TokenVerifier and
// ports.IdentityDirectory.
type AuthClient struct {
	base
	verifyTimeout time.Duration
}

func NewAuthClient(baseURL, serviceKey string, verifyTimeout time.Duration) *AuthClient {
	if verifyTimeout <= 0 {
		verifyTimeout = DefaultVerifyTimeout
	}
	return &AuthClient{base: newBase(baseURL, serviceKey, 0), verifyTimeout: verifyTimeout}
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	Success bool             `json:"success"`
	Valid   bool             `json:"valid"`
	User    *domain.Identity `json:"user"`
}

// VerifyAccessToken fails closed: every transport, status or decoding
// problem is reported as domain.ErrUnauthenticated.
func (c *AuthClient) VerifyAccessToken(ctx context.Context, token string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	var out verifyTokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-token", verifyTokenRequest{Token: token}, &out, header); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if !out.Valid || out.User == nil || out.User.UserID == "" || !domain.ValidRole(out.User.Role) {
		return nil, fmt.Errorf("%w: token rejected by auth service", domain.ErrUnauthenticated)
	}
	return out.User, nil
}

type basicInfoRequest struct {
	UserIDs []string `json:"userIds"`
}

type basicInfoResponse struct {
	Success bool               `json:"success"`
	Users   []domain.UserBasic `json:"users"`
}

func (c *AuthClient) FetchBasicInfo(ctx context.Context, userIDs []string) ([]domain.UserBasic, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("%w: no service key configured", domain.ErrUpstreamUnavailable)
	}
	var out basicInfoResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/internal/users/basic", basicInfoRequest{UserIDs: userIDs}, &out, c.internalHeader()); err != nil {
		return nil, upstream(err)
	}
	return out.Users, nil
}

type userStatsResponse struct {
	Success bool             `json:"success"`
	Stats   *ports.UserStats `json:"stats"`
}

func (c *AuthClient) UserStats(ctx context.Context) (*ports.UserStats, error) {
	var out userStatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/internal/users/stats", nil, &out, c.internalHeader()); err != nil {
		return nil, upstream(err)
	}
	if out.Stats == nil {
		return nil, fmt.Errorf("%w: empty stats", domain.ErrUpstreamUnavailable)
	}
	return out.Stats, nil
}

func upstream(err error) error {
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
}
