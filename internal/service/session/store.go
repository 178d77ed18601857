package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-portal/internal/idp"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
)

// Deps are the collaborators shared by every client's store.
type Deps struct {
	Provider idp.Provider
	Tokens   repository.TokenRepository
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Store holds at most one session for a single client context.
type Store struct {
	clientID string
	provider idp.Provider
	tokens   repository.TokenRepository
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	current *model.Session
	claim   string
}

func NewStore(clientID string, deps Deps, notifier notification.Notifier) *Store {
	if notifier == nil {
		notifier = notification.Nop
	}
	return &Store{
		clientID: clientID,
		provider: deps.Provider,
		tokens:   deps.Tokens,
		notifier: notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With().Str("client_id", clientID).Logger(),
		now:      time.Now,
	}
}

// Login authenticates and, on success, replaces the current session. On failure
// the previous session, if any, is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) (*model.Session, error) {
	grant, err := s.provider.Authenticate(ctx, email, password)
	s.metrics.ObserveLogin(err)
	if err != nil {
		s.notifier.Notify(ctx, notification.Error(loginFailureMessage(err)))
		s.logger.Info().Err(err).Msg("login rejected")
		return nil, err
	}

	sess := &model.Session{
		Identity:  grant.Identity,
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
	}

	if s.tokens != nil {
		if err := s.tokens.Save(ctx, s.clientID, grant.Token, s.ttl(grant.ExpiresAt)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist session token")
		}
	}

	s.mu.Lock()
	s.current = sess
	s.claim = grant.Claim
	s.mu.Unlock()

	s.notifier.Notify(ctx, notification.Success(fmt.Sprintf("Welcome %s", displayName(sess.Identity))))
	s.logger.Info().Str("identity_id", sess.Identity.ID).Str("role", sess.Role().String()).Msg("login succeeded")

	out := *sess
	return &out, nil
}

// Register creates an identity at the provider. It does not log the new
// identity in.
func (s *Store) Register(ctx context.Context, draft model.IdentityDraft) (bool, error) {
	identity, err := s.provider.Register(ctx, draft)
	s.metrics.ObserveRegistration(err)
	if err != nil {
		s.notifier.Notify(ctx, notification.Error(registerFailureMessage(err)))
		s.logger.Info().Err(err).Msg("registration rejected")
		return false, err
	}

	s.notifier.Notify(ctx, model.Notification{
		Kind:          model.NotificationSuccess,
		Event:         model.EventRegistered,
		Message:       "Registration successful",
		Subject:       "Welcome to the clinic portal",
		Recipient:     identity.Email,
		RecipientName: identity.Name,
	})
	s.logger.Info().Str("identity_id", identity.ID).Msg("identity registered")
	return true, nil
}

// Logout clears the session and the persisted token. Calling it without a
// session is fine.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.claim = ""
	s.mu.Unlock()

	if s.tokens != nil {
		if err := s.tokens.Clear(ctx, s.clientID); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear session token")
		}
	}

	s.metrics.ObserveLogout()
	s.notifier.Notify(ctx, notification.Info("Session closed"))
}

// CurrentRole returns RoleGuest when nobody is logged in.
func (s *Store) CurrentRole() model.Role {
	sess, ok := s.Current()
	if !ok {
		return model.RoleGuest
	}
	return sess.Role()
}

// Current returns a copy of the active session. An expired session is dropped.
func (s *Store) Current() (*model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, false
	}
	if s.current.Expired(s.now()) {
		s.logger.Info().Msg("session expired")
		s.current = nil
		s.claim = ""
		return nil, false
	}
	out := *s.current
	return &out, true
}

// Claim is the raw role claim of the active session's token.
func (s *Store) Claim() string {
	if _, ok := s.Current(); !ok {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claim
}

// Restore rebuilds the session from the persisted token, e.g. after a reload.
// Invalid or expired tokens are discarded.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	if s.tokens == nil {
		return false, nil
	}
	token, err := s.tokens.Load(ctx, s.clientID)
	if err != nil {
		return false, fmt.Errorf("failed to load session token: %w", err)
	}
	if token == "" {
		return false, nil
	}

	claims, err := s.provider.Decode(token)
	if err != nil {
		s.logger.Info().Err(err).Msg("discarding persisted token")
		if clearErr := s.tokens.Clear(ctx, s.clientID); clearErr != nil {
			s.logger.Warn().Err(clearErr).Msg("failed to clear session token")
		}
		return false, nil
	}

	s.mu.Lock()
	s.current = &model.Session{
		Identity:  claims.Identity(),
		Token:     token,
		ExpiresAt: claims.Expiry(),
	}
	s.claim = claims.Rol
	s.mu.Unlock()
	return true, nil
}

func (s *Store) ttl(exp time.Time) time.Duration {
	if exp.IsZero() {
		return 0
	}
	return exp.Sub(s.now())
}

func displayName(identity model.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	return identity.Email
}

func loginFailureMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.InvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, apperrors.NetworkError):
		return "Could not reach the identity provider, try again"
	default:
		return "Login failed"
	}
}

func registerFailureMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.EmailAlreadyRegistered):
		return "That email is already registered"
	case errors.Is(err, apperrors.ValidationError):
		return apperrors.PublicMessage(err)
	case errors.Is(err, apperrors.NetworkError):
		return "Could not reach the identity provider, try again"
	default:
		return "Registration failed"
	}
}
