package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

const (
	// MaxRefreshTokens is the number of concurrent refresh tokens kept per credential.
	MaxRefreshTokens = 5
	// CodeTTL is how long verification and reset codes stay valid.
	CodeTTL = 10 * time.Minute
	// MinPasswordLength is the shortest password accepted on register and reset.
	MinPasswordLength = 6
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RefreshTokenRecord is a refresh token the credential still honours.
type RefreshTokenRecord struct {
	Token     string    `json:"-" bson:"token"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Credential is the authoritative identity record owned by the auth service.
type Credential struct {
	ID                  string               `json:"id" bson:"_id"`
	Email               string               `json:"email" bson:"email"`
	PasswordHash        string               `json:"-" bson:"password_hash"`
	FirstName           string               `json:"firstName" bson:"first_name"`
	LastName            string               `json:"lastName" bson:"last_name"`
	Phone               string               `json:"phone,omitempty" bson:"phone,omitempty"`
	Avatar              string               `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role                string               `json:"role" bson:"role"`
	Verified            bool                 `json:"isVerified" bson:"verified"`
	VerificationCode    string               `json:"-" bson:"verification_code,omitempty"`
	VerificationExpires time.Time            `json:"-" bson:"verification_expires,omitempty"`
	ResetCode           string               `json:"-" bson:"reset_code,omitempty"`
	ResetExpires        time.Time            `json:"-" bson:"reset_expires,omitempty"`
	RefreshTokens       []RefreshTokenRecord `json:"-" bson:"refresh_tokens"`
	CreatedAt           time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt           time.Time            `json:"updatedAt" bson:"updated_at"`
}

// BasicInfo returns the identity fields mirrored into medical profiles.
func (c *Credential) BasicInfo() BasicInfo {
	return BasicInfo{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Avatar:    c.Avatar,
	}
}

// Identity returns the caller view of the credential.
func (c *Credential) Identity() Identity {
	return Identity{
		UserID:    c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Avatar:    c.Avatar,
		Role:      c.Role,
	}
}

// IssueVerificationCode stores a fresh verification code and returns it.
func (c *Credential) IssueVerificationCode(now time.Time) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	c.VerificationCode = code
	c.VerificationExpires = now.Add(CodeTTL)
	return code, nil
}

// IssueResetCode stores a fresh password-reset code and returns it.
func (c *Credential) IssueResetCode(now time.Time) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	c.ResetCode = code
	c.ResetExpires = now.Add(CodeTTL)
	return code, nil
}

// AddRefreshToken appends a token and evicts the oldest entries beyond MaxRefreshTokens.
func (c *Credential) AddRefreshToken(token string, expiresAt time.Time) {
	c.RefreshTokens = append(c.RefreshTokens, RefreshTokenRecord{Token: token, ExpiresAt: expiresAt})
	if over := len(c.RefreshTokens) - MaxRefreshTokens; over > 0 {
		c.RefreshTokens = append([]RefreshTokenRecord(nil), c.RefreshTokens[over:]...)
	}
}

// HasRefreshToken reports whether token is retained and not yet expired.
func (c *Credential) HasRefreshToken(token string, now time.Time) bool {
	for _, rt := range c.RefreshTokens {
		if rt.Token == token {
			return now.Before(rt.ExpiresAt)
		}
	}
	return false
}

// RemoveRefreshToken drops token from the retained list. It reports whether it was present.
func (c *Credential) RemoveRefreshToken(token string) bool {
	for i, rt := range c.RefreshTokens {
		if rt.Token == token {
			c.RefreshTokens = append(c.RefreshTokens[:i:i], c.RefreshTokens[i+1:]...)
			return true
		}
	}
	return false
}

// GenerateCode returns a uniformly random 6-digit numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
