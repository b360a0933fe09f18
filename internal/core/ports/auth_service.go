package ports

import (
	"context"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// RegisterInput is a public self-registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// RegisterResult reports whether a new credential was created or an
// unverified one was sent a fresh code.
type RegisterResult struct {
	Credential *domain.Credential
	Resent     bool
}

// Session is the token pair handed out after login or verification.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             *domain.Credential
}

// AuthService is the public and internal authentication flow.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) (*Session, error)
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*Session, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	Me(ctx context.Context, userID string) (*domain.Credential, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, password string) error
	TokenVerifier
	BasicInfo(ctx context.Context, ids []string) ([]domain.UserBasic, error)
}

// CreateUserInput is an admin-created account; it is verified immediately.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// UpdateUserInput changes basic fields; empty values leave the field unchanged.
type UpdateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// UserStats summarises the credential store for the admin dashboard.
type UserStats struct {
	Total      int64            `json:"totalUsers"`
	ByRole     map[string]int64 `json:"byRole"`
	Unverified int64            `json:"unverified"`
}

// UserAdminService is admin-only credential management.
type UserAdminService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.Credential, error)
	GetUser(ctx context.Context, id string) (*domain.Credential, error)
	ListUsers(ctx context.Context, filter CredentialFilter) (*Page[*domain.Credential], error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*domain.Credential, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.Credential, error)
	DeleteUser(ctx context.Context, actorID, id string) error
	Stats(ctx context.Context) (*UserStats, error)
	SeedAdmin(ctx context.Context, email, password string) (bool, error)
}
