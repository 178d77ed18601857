package idp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/security"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

var _ Provider = (*Mock)(nil)

// Seed describes an identity loaded at startup. Either Password or
// PasswordHash must be set; a plain password is hashed immediately.
type Seed struct {
	ID           string `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	Email        string `mapstructure:"email"`
	Role         string `mapstructure:"role"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// Mock is an in-process identity provider backed by the identity repository.
// Only bcrypt hashes are kept.
type Mock struct {
	repo     repository.IdentityRepository
	hasher   security.PasswordHasher
	tokens   auth.JWTService
	validate validator.Validator
	newID    func() string
}

func NewMock(repo repository.IdentityRepository, hasher security.PasswordHasher, tokens auth.JWTService) *Mock {
	return &Mock{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
		newID:    func() string { return uuid.New().String() },
	}
}

func (m *Mock) Authenticate(ctx context.Context, email, password string) (*Grant, error) {
	cred, err := m.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.NotFoundError) {
			return nil, apperrors.CredentialsRejected(nil)
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	if err := m.hasher.Compare(cred.PasswordHash, password); err != nil {
		return nil, apperrors.CredentialsRejected(nil)
	}

	token, exp, err := m.tokens.GenerateAccessToken(cred.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &Grant{
		Token:     token,
		Identity:  cred.Identity,
		ExpiresAt: exp,
		Claim:     cred.Role.Claim(),
	}, nil
}

func (m *Mock) Register(ctx context.Context, draft model.IdentityDraft) (model.Identity, error) {
	draft.LicenseNumber = strings.TrimSpace(draft.LicenseNumber)
	if err := m.validate.Validate(draft); err != nil {
		return model.Identity{}, apperrors.Validation(err.Error(), err)
	}
	if !draft.Role.Registrable() {
		return model.Identity{}, apperrors.Validation("a role is required", nil)
	}

	if _, err := m.repo.GetByEmail(ctx, draft.Email); err == nil {
		return model.Identity{}, apperrors.EmailTaken(model.NormalizeEmail(draft.Email))
	} else if !errors.Is(err, apperrors.NotFoundError) {
		return model.Identity{}, fmt.Errorf("failed to look up identity: %w", err)
	}

	hash, err := m.hasher.Hash(draft.Password)
	if err != nil {
		return model.Identity{}, apperrors.Validation("invalid password", err)
	}

	cred := &model.Credential{
		Identity:     draft.Identity(m.newID()),
		PasswordHash: hash,
	}
	if err := m.repo.Create(ctx, cred); err != nil {
		return model.Identity{}, err
	}
	return cred.Identity, nil
}

func (m *Mock) Decode(token string) (*auth.Claims, error) {
	return m.tokens.ValidateToken(token)
}

// Load inserts seed identities, skipping emails that already exist.
func (m *Mock) Load(ctx context.Context, seeds []Seed) error {
	for _, s := range seeds {
		role := model.ParseRole(s.Role)
		if !role.Registrable() {
			return fmt.Errorf("seed %s: unknown role %q", s.Email, s.Role)
		}

		hash := s.PasswordHash
		if hash == "" {
			h, err := m.hasher.Hash(s.Password)
			if err != nil {
				return fmt.Errorf("seed %s: %w", s.Email, err)
			}
			hash = h
		}

		id := s.ID
		if id == "" {
			id = m.newID()
		}

		err := m.repo.Create(ctx, &model.Credential{
			Identity: model.Identity{
				ID:    id,
				Name:  s.Name,
				Email: s.Email,
				Role:  role,
			},
			PasswordHash: hash,
		})
		if err != nil && !errors.Is(err, apperrors.EmailAlreadyRegistered) {
			return fmt.Errorf("seed %s: %w", s.Email, err)
		}
	}
	return nil
}
