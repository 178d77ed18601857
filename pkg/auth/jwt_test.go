package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

func newService(t *testing.T, cfg Config) *jwtService {
	t.Helper()
	svc, err := NewJWTService(cfg)
	require.NoError(t, err)
	return svc.(*jwtService)
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newService(t, Config{Secret: "s3cret", Expiry: time.Hour, Verify: true})
	identity := model.Identity{ID: "u1", Name: "Ana", Email: "a@x.com", Role: model.RoleDoctor}

	token, exp, err := svc.GenerateAccessToken(identity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "medico", claims.Rol)
	assert.Equal(t, identity, claims.Identity())
	assert.Equal(t, exp.Unix(), claims.Expiry().Unix())
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := newService(t, Config{Secret: "one", Verify: true})
	verifier := newService(t, Config{Secret: "two", Verify: true})

	token, _, err := issuer.GenerateAccessToken(model.Identity{ID: "u1", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestValidateUnverifiedReadsForeignToken(t *testing.T) {
	issuer := newService(t, Config{Secret: "provider-key", Verify: true})
	decoder := newService(t, Config{Verify: false})

	token, _, err := issuer.GenerateAccessToken(model.Identity{ID: "u9", Role: model.RolePatient})
	require.NoError(t, err)

	claims, err := decoder.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, claims.Identity().Role)
}

func TestValidateExpired(t *testing.T) {
	svc := newService(t, Config{Secret: "s3cret", Expiry: time.Minute, Verify: true})
	token, _, err := svc.GenerateAccessToken(model.Identity{ID: "u1", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	svc := newService(t, Config{Secret: "s3cret", Verify: true})
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Rol: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestConfigErrors(t *testing.T) {
	_, err := NewJWTService(Config{Verify: true})
	assert.ErrorIs(t, err, ErrNoSecret)

	svc := newService(t, Config{})
	_, _, err = svc.GenerateAccessToken(model.Identity{ID: "u1"})
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrBadToken)
}
