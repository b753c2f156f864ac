package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"clearance-backend/internal/shared/auth"
	"clearance-backend/internal/shared/telemetry"
)

// PasswordHasher hashes new passwords and verifies presented ones.
type PasswordHasher interface {
	auth.CredentialVerifier
	Hash(password string) (string, error)
}

// TokenSigner issues bearer tokens.
type TokenSigner interface {
	Sign(subject, role, email, name string) (string, error)
	TTL() time.Duration
}

type Service struct {
	Repo   Repo
	Hasher PasswordHasher
	Tokens TokenSigner
	Now    func() time.Time

	validate *validator.Validate
}

func NewService(repo Repo, hasher PasswordHasher, tokens TokenSigner) *Service {
	return &Service{
		Repo:     repo,
		Hasher:   hasher,
		Tokens:   tokens,
		Now:      func() time.Time { return time.Now().UTC() },
		validate: validator.New(),
	}
}

// Create stores a new admin with a hashed password.
func (s *Service) Create(ctx context.Context, in CreateInput) (Admin, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if s.validate == nil {
		s.validate = validator.New()
	}
	if err := s.validate.Struct(in); err != nil {
		return Admin{}, fmt.Errorf("%w: name, a valid email, and a password of at least 8 characters are required", ErrInvalidInput)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return Admin{}, fmt.Errorf("%w: hash password: %w", ErrInvalidInput, err)
	}
	a := Admin{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			return Admin{}, err
		}
		return Admin{}, fmt.Errorf("%w: create: %w", ErrPersistence, err)
	}
	telemetry.Info("admin.created", map[string]any{"admin_id": a.ID})
	return a, nil
}

// EnsureExists creates the admin unless one with the same email is already stored.
func (s *Service) EnsureExists(ctx context.Context, in CreateInput) (Admin, bool, error) {
	existing, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Admin{}, false, fmt.Errorf("%w: lookup: %w", ErrPersistence, err)
	}
	created, err := s.Create(ctx, in)
	if err != nil {
		return Admin{}, false, err
	}
	return created, true, nil
}

// Login checks the credentials, records the login time, and signs a token.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	a, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: lookup: %w", ErrPersistence, err)
	}
	if !s.Hasher.Verify(password, a.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.Repo.UpdateLastLogin(ctx, a.ID, now); err != nil {
		return LoginResult{}, fmt.Errorf("%w: last login: %w", ErrPersistence, err)
	}
	a.LastLogin = &now

	token, err := s.Tokens.Sign(a.ID, auth.RoleAdmin, a.Email, a.Name)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	telemetry.Info("admin.login", map[string]any{"admin_id": a.ID})
	return LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.Tokens.TTL()),
		Admin:     a,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Admin, error) {
	if strings.TrimSpace(id) == "" {
		return Admin{}, ErrNotFound
	}
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Admin{}, fmt.Errorf("%w: get: %w", ErrPersistence, err)
	}
	return a, err
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
