package ports

import (
	"context"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// CredentialFilter carries the admin listing query.
type CredentialFilter struct {
	Role     string // optional exact role
	Search   string // optional partial match on first name, last name or email
	Verified *bool  // optional verification state
	Page     int    // 1-based
	Limit    int    // rows per page, capped by the service
}

// AccountUpdate lists the admin-editable fields. Empty fields are left as stored.
type AccountUpdate struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// CredentialRepository persists credentials. Emails are stored normalized.
type CredentialRepository interface {
	// Create inserts c. Returns domain.ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, c *domain.Credential) error
	FindByID(ctx context.Context, id string) (*domain.Credential, error)
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Credential, error)
	// SetVerificationCode stores a fresh code on an unverified credential.
	// Returns domain.ErrAlreadyVerified when the credential got verified first.
	SetVerificationCode(ctx context.Context, id, code string, expires, now time.Time) error
	SetResetCode(ctx context.Context, id, code string, expires, now time.Time) error
	// UpdateAccount sets the non-empty fields of u and returns the stored
	// credential. Returns domain.ErrDuplicateEmail on an email clash.
	UpdateAccount(ctx context.Context, id string, u AccountUpdate, now time.Time) (*domain.Credential, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CredentialFilter) ([]*domain.Credential, int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)

	// ConsumeVerificationCode atomically marks the unverified credential with a
	// matching unexpired code as verified and clears the code. Returns
	// domain.ErrInvalidOrExpiredCode when nothing matched.
	ConsumeVerificationCode(ctx context.Context, email, code string, now time.Time) (*domain.Credential, error)
	// ConsumeResetCode atomically swaps the password hash, clears the reset code
	// and revokes every refresh token.
	ConsumeResetCode(ctx context.Context, email, code, passwordHash string, now time.Time) (*domain.Credential, error)
	// PushRefreshToken appends rec and keeps only the newest keep entries.
	PushRefreshToken(ctx context.Context, id string, rec domain.RefreshTokenRecord, keep int) error
	PullRefreshToken(ctx context.Context, id, token string) error
}
