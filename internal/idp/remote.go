package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/auth"
	"github.com/jwalitptl/clinic-portal/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	maxBodyBytes = 1 << 20
)

var _ Provider = (*Remote)(nil)

type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Remote is the HTTP client for a real identity provider. Calls are not retried;
// a failure surfaces to the user who repeats the action.
type Remote struct {
	baseURL string
	client  *http.Client
	tokens  auth.JWTService
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewRemote(cfg RemoteConfig, tokens auth.JWTService, m *metrics.Metrics) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "identity-provider",
			MaxFailures: 5,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
		}),
		metrics: m,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Rol      string `json:"rol"`
	Cedula   string `json:"cedulaProfesional,omitempty"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// response is what survives the circuit breaker: the status plus the body.
type response struct {
	status int
	body   []byte
}

func (r *Remote) Authenticate(ctx context.Context, email, password string) (*Grant, error) {
	defer r.metrics.ObserveCollaborator("identity", "login", time.Now())

	resp, err := r.post(ctx, loginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	switch {
	case resp.status == http.StatusOK:
	case resp.status >= 400 && resp.status < 500:
		return nil, apperrors.CredentialsRejected(errors.New(decodeError(resp.body)))
	default:
		return nil, apperrors.Network("identity provider failed", fmt.Errorf("status %d", resp.status))
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.body, &tr); err != nil || tr.Token == "" {
		return nil, apperrors.Network("identity provider sent an unreadable response", err)
	}

	claims, err := r.tokens.ValidateToken(tr.Token)
	if err != nil {
		return nil, apperrors.Network("identity provider sent an invalid token", err)
	}

	grant := grantFromClaims(tr.Token, claims)
	if grant.Identity.Email == "" {
		grant.Identity.Email = model.NormalizeEmail(email)
	}
	return grant, nil
}

func (r *Remote) Register(ctx context.Context, draft model.IdentityDraft) (model.Identity, error) {
	defer r.metrics.ObserveCollaborator("identity", "register", time.Now())

	resp, err := r.post(ctx, registerPath, registerRequest{
		Name:     draft.Name,
		Email:    draft.Email,
		Password: draft.Password,
		Rol:      draft.Role.Claim(),
		Cedula:   draft.LicenseNumber,
	})
	if err != nil {
		return model.Identity{}, err
	}

	switch {
	case resp.status == http.StatusOK || resp.status == http.StatusCreated:
	case resp.status == http.StatusConflict:
		return model.Identity{}, apperrors.EmailTaken(model.NormalizeEmail(draft.Email))
	case resp.status >= 400 && resp.status < 500:
		return model.Identity{}, apperrors.Validation(decodeError(resp.body), nil)
	default:
		return model.Identity{}, apperrors.Network("identity provider failed", fmt.Errorf("status %d", resp.status))
	}

	var rr registerResponse
	if len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, &rr); err != nil {
			return model.Identity{}, apperrors.Network("identity provider sent an unreadable response", err)
		}
	}
	return draft.Identity(rr.ID), nil
}

func (r *Remote) Decode(token string) (*auth.Claims, error) {
	return r.tokens.ValidateToken(token)
}

func (r *Remote) post(ctx context.Context, path string, payload interface{}) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var out *response
	err = r.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		res, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		out = &response{status: res.StatusCode, body: data}
		// only server-side failures count against the breaker
		if res.StatusCode >= 500 {
			return fmt.Errorf("status %d", res.StatusCode)
		}
		return nil
	})
	if out != nil && out.status >= 500 {
		return out, nil
	}
	if err != nil {
		return nil, apperrors.Network("identity provider unreachable", err)
	}
	return out, nil
}

func decodeError(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.text() != "" {
		return e.text()
	}
	return "request rejected"
}
