package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// CreateUser creates a verified credential with any role and pushes the
// matching medical profile.
func (s *AuthService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.Credential, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := validateAccount(email, in.Password, in.FirstName, in.LastName); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RolePatient
	}
	if !domain.ValidRole(role) {
		return nil, domain.NewValidationError("role", "role must be one of: patient doctor admin")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	now := s.now().UTC()
	cred := &domain.Credential{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Phone:         strings.TrimSpace(in.Phone),
		Role:          role,
		Verified:      true,
		RefreshTokens: []domain.RefreshTokenRecord{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", cred.ID).Str("role", role).Msg("user created by admin")
	s.pushProfile(ctx, cred)
	return cred, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.Credential, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context, filter ports.CredentialFilter) (*ports.Page[*domain.Credential], error) {
	if filter.Role != "" && !domain.ValidRole(filter.Role) {
		return nil, domain.NewValidationError("role", "role must be one of: patient doctor admin")
	}
	filter.Page, filter.Limit = ports.ClampPage(filter.Page, filter.Limit)
	filter.Search = strings.TrimSpace(filter.Search)

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ports.NewPage(users, total, filter.Page, filter.Limit), nil
}

// UpdateUser changes basic fields and role. The email must stay unique.
func (s *AuthService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.Credential, error) {
	cred, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := ports.AccountUpdate{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Role:      in.Role,
	}
	if update.Role != "" && !domain.ValidRole(update.Role) {
		return nil, domain.NewValidationError("role", "role must be one of: patient doctor admin")
	}
	if email := domain.NormalizeEmail(in.Email); email != "" && email != cred.Email {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return nil, domain.ErrDuplicateEmail
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("update user: %w", err)
		}
		update.Email = email
	}

	cred, err = s.repo.UpdateAccount(ctx, id, update, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.log.Info().Str("user_id", cred.ID).Msg("user updated by admin")
	s.pushProfile(ctx, cred)
	return cred, nil
}

// UpdateRole changes only the role and pushes the profile for the new role.
func (s *AuthService) UpdateRole(ctx context.Context, id, role string) (*domain.Credential, error) {
	if !domain.ValidRole(role) {
		return nil, domain.NewValidationError("role", "role must be one of: patient doctor admin")
	}
	cred, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := cred.Role
	cred, err = s.repo.UpdateAccount(ctx, id, ports.AccountUpdate{Role: role}, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	s.log.Info().Str("user_id", cred.ID).Str("from", previous).Str("to", role).Msg("role changed")
	s.pushProfile(ctx, cred)
	return cred, nil
}

// DeleteUser removes a credential. Medical profiles that reference it are
// left in place.
func (s *AuthService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return domain.ErrSelfDelete
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Str("user_id", id).Str("actor_id", actorID).Msg("user deleted, medical profile kept")
	return nil
}

func (s *AuthService) Stats(ctx context.Context) (*ports.UserStats, error) {
	byRole, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	var total int64
	for _, n := range byRole {
		total += n
	}

	unverified := false
	_, pending, err := s.repo.List(ctx, ports.CredentialFilter{Verified: &unverified, Page: 1, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &ports.UserStats{Total: total, ByRole: byRole, Unverified: pending}, nil
}

// SeedAdmin creates a verified admin when the email is free. It reports
// whether a credential was created.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = domain.NormalizeEmail(email)
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			s.log.Warn().Str("email", email).Str("role", existing.Role).Msg("seed email belongs to a non-admin account")
		}
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	if _, err := s.CreateUser(ctx, ports.CreateUserInput{
		Email:     email,
		Password:  password,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      domain.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
