package idp

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

var _ Provider = (*Recording)(nil)

// Recording wraps a provider and copies every identity it vouches for into
// seen. With a remote provider, seen is the only local directory, so
// appointments can be checked against identities that have logged in,
// registered or restored a session here.
type Recording struct {
	next   Provider
	seen   repository.IdentityRepository
	logger zerolog.Logger
}

func NewRecording(next Provider, seen repository.IdentityRepository, logger zerolog.Logger) *Recording {
	return &Recording{next: next, seen: seen, logger: logger}
}

func (r *Recording) Authenticate(ctx context.Context, email, password string) (*Grant, error) {
	grant, err := r.next.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	r.remember(ctx, grant.Identity)
	return grant, nil
}

func (r *Recording) Register(ctx context.Context, draft model.IdentityDraft) (model.Identity, error) {
	identity, err := r.next.Register(ctx, draft)
	if err != nil {
		return identity, err
	}
	r.remember(ctx, identity)
	return identity, nil
}

func (r *Recording) Decode(token string) (*auth.Claims, error) {
	claims, err := r.next.Decode(token)
	if err != nil {
		return nil, err
	}
	r.remember(context.Background(), claims.Identity())
	return claims, nil
}

// remember ignores identities without an id and ones already known.
func (r *Recording) remember(ctx context.Context, identity model.Identity) {
	if identity.ID == "" {
		return
	}
	if _, err := r.seen.Get(ctx, identity.ID); err == nil {
		return
	}
	err := r.seen.Create(ctx, &model.Credential{Identity: identity})
	if err == nil || errors.Is(err, apperrors.EmailAlreadyRegistered) {
		return
	}
	r.logger.Warn().Err(err).Str("identity_id", identity.ID).Msg("failed to remember identity")
}
