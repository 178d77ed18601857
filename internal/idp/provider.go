// Package idp talks to the identity provider: the collaborator that checks
// credentials and signs session tokens carrying the role claim.
package idp

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/auth"
)

// Grant is the result of a successful authentication.
type Grant struct {
	Token     string
	Identity  model.Identity
	ExpiresAt time.Time
	// Claim is the raw `rol` claim, used to pick the post-login screen.
	Claim string
}

type Provider interface {
	Authenticate(ctx context.Context, email, password string) (*Grant, error)
	Register(ctx context.Context, draft model.IdentityDraft) (model.Identity, error)
	Decode(token string) (*auth.Claims, error)
}

// grantFromClaims builds a grant from a decoded token.
func grantFromClaims(token string, claims *auth.Claims) *Grant {
	return &Grant{
		Token:     token,
		Identity:  claims.Identity(),
		ExpiresAt: claims.Expiry(),
		Claim:     claims.Rol,
	}
}
