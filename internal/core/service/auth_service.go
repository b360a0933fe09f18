package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/metrics"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// maxBasicLookup bounds a single internal basic-info request.
const maxBasicLookup = 200

// PasswordHasher abstracts the password hashing scheme.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// AuthService implements the credential lifecycle: registration, email
// verification, login, refresh, logout, password reset and admin management.
type AuthService struct {
	repo     ports.CredentialRepository
	tokens   *TokenService
	hasher   PasswordHasher
	notifier ports.Notifier
	syncer   ports.ProfileSyncer
	log      zerolog.Logger
	now      func() time.Time

	// decoyHash is verified against on unknown emails so both login
	// failures cost one hash comparison.
	decoyHash string
}

// NewAuthService wires the auth flow. syncer may be nil when no medical
// service is configured; profile sync is then skipped.
func NewAuthService(
	repo ports.CredentialRepository,
	tokens *TokenService,
	hasher PasswordHasher,
	notifier ports.Notifier,
	syncer ports.ProfileSyncer,
	log zerolog.Logger,
) *AuthService {
	decoy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		log.Warn().Err(err).Msg("decoy password hash unavailable")
	}
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		hasher:    hasher,
		notifier:  notifier,
		syncer:    syncer,
		log:       log,
		now:       time.Now,
		decoyHash: decoy,
	}
}

// Register creates an unverified patient credential and mails a code. An
// unverified duplicate gets a fresh code instead of an error.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := validateAccount(email, in.Password, in.FirstName, in.LastName); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Verified {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrDuplicateEmail
		}
		code, err := existing.IssueVerificationCode(now)
		if err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
		existing.UpdatedAt = now
		if err := s.repo.SetVerificationCode(ctx, existing.ID, code, existing.VerificationExpires, now); err != nil {
			if errors.Is(err, domain.ErrAlreadyVerified) {
				metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
				return nil, domain.ErrDuplicateEmail
			}
			return nil, fmt.Errorf("register: store code: %w", err)
		}
		s.sendVerification(ctx, existing, code)
		metrics.RegistrationsTotal.WithLabelValues("resent").Inc()
		s.log.Info().Str("user_id", existing.ID).Str("email", email).Msg("verification code resent on re-registration")
		return &ports.RegisterResult{Credential: existing, Resent: true}, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	cred := &domain.Credential{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Phone:         strings.TrimSpace(in.Phone),
		Role:          domain.RolePatient,
		RefreshTokens: []domain.RefreshTokenRecord{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	code, err := cred.IssueVerificationCode(now)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if err := s.repo.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, err
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	s.sendVerification(ctx, cred, code)
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("user_id", cred.ID).Str("email", email).Msg("credential registered")

	return &ports.RegisterResult{Credential: cred}, nil
}

// VerifyEmail consumes a verification code, activates the credential, pushes
// the patient profile to the medical service and opens a session.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*ports.Session, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, domain.ErrInvalidOrExpiredCode
	}

	cred, err := s.repo.ConsumeVerificationCode(ctx, email, code, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredCode) {
			return nil, err
		}
		return nil, fmt.Errorf("verify email: %w", err)
	}

	s.log.Info().Str("user_id", cred.ID).Str("email", email).Msg("email verified")

	if cred.Role == domain.RolePatient {
		s.pushProfile(ctx, cred)
	}

	return s.openSession(ctx, cred)
}

// ResendCode issues a new verification code for an unverified credential.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	cred, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if cred.Verified {
		return domain.ErrAlreadyVerified
	}

	now := s.now().UTC()
	code, err := cred.IssueVerificationCode(now)
	if err != nil {
		return fmt.Errorf("resend code: %w", err)
	}
	if err := s.repo.SetVerificationCode(ctx, cred.ID, code, cred.VerificationExpires, now); err != nil {
		if errors.Is(err, domain.ErrAlreadyVerified) {
			return err
		}
		return fmt.Errorf("resend code: %w", err)
	}
	s.sendVerification(ctx, cred, code)
	return nil
}

// Login checks the credentials and opens a session. Unknown email and wrong
// password share one error. Unverified accounts are refused before the
// password is checked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			if s.decoyHash != "" {
				_, _ = s.hasher.Verify(password, s.decoyHash)
			}
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !cred.Verified {
		metrics.LoginsTotal.WithLabelValues("unverified").Inc()
		return nil, domain.ErrEmailNotVerified
	}

	ok, err := s.hasher.Verify(password, cred.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", cred.ID).Msg("stored password hash unreadable")
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, cred)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", cred.ID).Str("role", cred.Role).Msg("login")
	return session, nil
}

// RefreshAccessToken issues a new access token for a retained, unexpired
// refresh token. The refresh token itself is not rotated.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", domain.ErrInvalidRefreshToken
	}
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", domain.ErrInvalidRefreshToken
	}

	cred, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if !cred.HasRefreshToken(refreshToken, s.now()) {
		return "", domain.ErrInvalidRefreshToken
	}

	access, _, err := s.tokens.IssueAccessToken(cred.ID, cred.Role)
	if err != nil {
		return "", err
	}
	return access, nil
}

// Logout revokes the presented refresh token, if any.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.PullRefreshToken(ctx, userID, refreshToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("refresh token revoked")
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.Credential, error) {
	return s.repo.FindByID(ctx, userID)
}

// ForgotPassword mails a reset code when the account exists. It reports
// success either way so callers cannot probe for registered emails.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Info().Str("email", email).Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}

	now := s.now().UTC()
	code, err := cred.IssueResetCode(now)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if err := s.repo.SetResetCode(ctx, cred.ID, code, cred.ResetExpires, now); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	err = s.notifier.SendPasswordReset(ctx, cred.Email, cred.FirstName, code)
	recordNotification("password_reset", err)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", cred.ID).Msg("password reset mail failed")
	}
	return nil
}

// ResetPassword consumes a reset code, stores the new password and revokes
// every refresh token of the account.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, password string) error {
	if len(password) < domain.MinPasswordLength {
		return domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength))
	}
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return domain.ErrInvalidOrExpiredCode
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	cred, err := s.repo.ConsumeResetCode(ctx, email, code, hash, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredCode) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}
	s.log.Info().Str("user_id", cred.ID).Msg("password reset")
	return nil
}

// VerifyAccessToken validates the token and re-reads the credential so the
// caller sees the live role and verification state.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.tokens.ParseAccessToken(token)
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	cred, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if !cred.Verified {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrUnauthenticated
	}

	metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
	id := cred.Identity()
	return &id, nil
}

// BasicInfo returns the public identity fields of the requested credentials.
// Unknown ids are omitted.
func (s *AuthService) BasicInfo(ctx context.Context, ids []string) ([]domain.UserBasic, error) {
	ids = uniqueNonEmpty(ids)
	if len(ids) == 0 {
		return nil, domain.NewValidationError("userIds", "userIds must contain at least one id")
	}
	if len(ids) > maxBasicLookup {
		return nil, domain.NewValidationError("userIds", fmt.Sprintf("at most %d ids per request", maxBasicLookup))
	}

	creds, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("basic info: %w", err)
	}
	out := make([]domain.UserBasic, 0, len(creds))
	for _, c := range creds {
		out = append(out, domain.UserBasic{ID: c.ID, BasicInfo: c.BasicInfo(), Role: c.Role})
	}
	return out, nil
}

// openSession issues a token pair and retains the refresh token. A refresh
// token that fails to persist is logged; it will simply not refresh later.
func (s *AuthService) openSession(ctx context.Context, cred *domain.Credential) (*ports.Session, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(cred.ID, cred.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(cred.ID)
	if err != nil {
		return nil, err
	}

	rec := domain.RefreshTokenRecord{Token: refresh, ExpiresAt: refreshExp}
	if err := s.repo.PushRefreshToken(ctx, cred.ID, rec, domain.MaxRefreshTokens); err != nil {
		s.log.Warn().Err(err).Str("user_id", cred.ID).Msg("refresh token not persisted")
	} else {
		cred.AddRefreshToken(rec.Token, rec.ExpiresAt)
	}

	return &ports.Session{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             cred,
	}, nil
}

// pushProfile mirrors the credential into the medical service. Failures are
// logged and never reach the caller.
func (s *AuthService) pushProfile(ctx context.Context, cred *domain.Credential) {
	if s.syncer == nil {
		return
	}
	if cred.Role != domain.RolePatient && cred.Role != domain.RoleDoctor {
		return
	}

	err := s.syncer.SyncProfile(ctx, ports.SyncProfileInput{
		UserID:    cred.ID,
		Role:      cred.Role,
		BasicInfo: cred.BasicInfo(),
	})
	if err != nil {
		metrics.ProfileSyncTotal.WithLabelValues("outbound", "failed").Inc()
		s.log.Warn().Err(err).
			Str("user_id", cred.ID).
			Str("role", cred.Role).
			Msg("profile sync failed, medical profile will be repaired on read")
		return
	}
	metrics.ProfileSyncTotal.WithLabelValues("outbound", "merged").Inc()
	s.log.Debug().Str("user_id", cred.ID).Str("role", cred.Role).Msg("profile synced")
}

func (s *AuthService) sendVerification(ctx context.Context, cred *domain.Credential, code string) {
	err := s.notifier.SendVerificationCode(ctx, cred.Email, cred.FirstName, code)
	recordNotification("verification", err)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", cred.ID).Msg("verification mail failed")
	}
}

func validateAccount(email, password, firstName, lastName string) error {
	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "email must be a valid email"
	}
	if len(password) < domain.MinPasswordLength {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength)
	}
	if strings.TrimSpace(firstName) == "" {
		fields["firstName"] = "firstName is required"
	}
	if strings.TrimSpace(lastName) == "" {
		fields["lastName"] = "lastName is required"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func recordNotification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	metrics.NotificationsTotal.WithLabelValues(kind, result).Inc()
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
