package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchByCode(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", CredentialsRejected(errors.New("bad password")))

	assert.True(t, errors.Is(wrapped, InvalidCredentials))
	assert.False(t, errors.Is(wrapped, NetworkError))
	assert.True(t, errors.Is(EmailTaken("a@x.com"), EmailAlreadyRegistered))
	assert.True(t, errors.Is(NotFound("appointment", nil), NotFoundError))
	assert.True(t, errors.Is(Validation("bad", nil), ValidationError))
	assert.True(t, errors.Is(Network("down", nil), NetworkError))
	assert.True(t, errors.Is(Forbidden("no"), ForbiddenError))
	assert.True(t, errors.Is(TooLarge(64, nil), TooLargeError))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("x", nil), http.StatusNotFound},
		{"validation", Validation("x", nil), http.StatusBadRequest},
		{"bad request", BadRequest("x", nil), http.StatusBadRequest},
		{"credentials", CredentialsRejected(nil), http.StatusUnauthorized},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("x"), http.StatusForbidden},
		{"email taken", EmailTaken("a@x.com"), http.StatusConflict},
		{"network", Network("x", nil), http.StatusBadGateway},
		{"too large", TooLarge(64, nil), http.StatusRequestEntityTooLarge},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound("x", nil)), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("db password wrong")))
	assert.Equal(t, "appointment not found", PublicMessage(NotFound("appointment", errors.New("detail"))))
}

func TestErrorIncludesCause(t *testing.T) {
	err := Network("identity provider unreachable", errors.New("dial tcp: refused"))
	assert.Equal(t, "identity provider unreachable: dial tcp: refused", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "dial tcp: refused")
}
