package client

import (
	"context"
	"net/http"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// MedicalClient pushes identity changes to the medical service. It
// implements ports.ProfileSyncer.
type MedicalClient struct {
	base
}

func NewMedicalClient(baseURL, serviceKey string, timeout time.Duration) *MedicalClient {
	return &MedicalClient{base: newBase(baseURL, serviceKey, timeout)}
}

// SyncProfileRequest is the body of POST /api/internal/profiles/sync.
type SyncProfileRequest struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

func (c *MedicalClient) SyncProfile(ctx context.Context, in ports.SyncProfileInput) error {
	req := SyncProfileRequest{
		UserID:    in.UserID,
		Email:     in.Email,
		Role:      in.Role,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Avatar:    in.Avatar,
	}
	if err := c.do(ctx, http.MethodPost, "/api/internal/profiles/sync", req, nil, c.internalHeader()); err != nil {
		return upstream(err)
	}
	return nil
}
