package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

var _ repository.IdentityRepository = (*IdentityRepository)(nil)

type IdentityRepository struct {
	mu      sync.RWMutex
	order   []string
	byID    map[string]*model.Credential
	byEmail map[string]string
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		byID:    make(map[string]*model.Credential),
		byEmail: make(map[string]string),
	}
}

func (r *IdentityRepository) Create(ctx context.Context, cred *model.Credential) error {
	if cred == nil || cred.ID == "" {
		return apperrors.Validation("identity id is required", nil)
	}
	email := model.NormalizeEmail(cred.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return apperrors.EmailTaken(email)
	}
	if _, exists := r.byID[cred.ID]; exists {
		return apperrors.Validation("identity id already in use", nil)
	}

	stored := *cred
	stored.Email = email
	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID
	r.order = append(r.order, stored.ID)
	return nil
}

func (r *IdentityRepository) Get(ctx context.Context, id string) (*model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("identity", nil)
	}
	identity := cred.Identity
	return &identity, nil
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.NotFound("identity", nil)
	}
	cred := *r.byID[id]
	return &cred, nil
}

func (r *IdentityRepository) List(ctx context.Context) ([]model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Identity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Identity)
	}
	return out, nil
}

func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order), nil
}
