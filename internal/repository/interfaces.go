package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

// All repository interfaces in one file
type (
	// IdentityRepository is the identity set. Only the mock identity provider
	// writes credentials; everything else reads identities.
	IdentityRepository interface {
		Create(ctx context.Context, cred *model.Credential) error
		Get(ctx context.Context, id string) (*model.Identity, error)
		GetByEmail(ctx context.Context, email string) (*model.Credential, error)
		List(ctx context.Context) ([]model.Identity, error)
		Count(ctx context.Context) (int, error)
	}

	// AppointmentRepository keeps appointments in insertion order.
	AppointmentRepository interface {
		Create(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id string) (*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment) error
		// Delete reports whether anything was removed.
		Delete(ctx context.Context, id string) (bool, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	}

	// TokenRepository persists the opaque session token of a client context
	// across reloads.
	TokenRepository interface {
		Save(ctx context.Context, clientID, token string, ttl time.Duration) error
		// Load returns "" when nothing is stored.
		Load(ctx context.Context, clientID string) (string, error)
		Clear(ctx context.Context, clientID string) error
	}
)
