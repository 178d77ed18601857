package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

var (
	ErrBadToken     = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrNoSecret     = errors.New("signing secret is not configured")
)

const claimCacheSize = 1024

// Claims is the payload the identity provider signs. Rol carries the role in the
// provider's own spelling (admin, paciente, medico).
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Rol   string `json:"rol"`
	jwt.RegisteredClaims
}

// Identity rebuilds the portal identity from the token payload.
func (c *Claims) Identity() model.Identity {
	return model.Identity{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
		Role:  model.ParseRole(c.Rol),
	}
}

// Expiry returns the expiry, zero when the token has none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type JWTService interface {
	GenerateAccessToken(identity model.Identity) (string, time.Time, error)
	ValidateToken(token string) (*Claims, error)
}

type Config struct {
	Secret string
	Expiry time.Duration
	// Verify turns off signature checks when false. Used when the portal only
	// decodes tokens minted by a remote provider it shares no key with.
	Verify bool
}

type jwtService struct {
	secret []byte
	expiry time.Duration
	verify bool
	cache  *lru.Cache[string, *Claims]
	now    func() time.Time
}

func NewJWTService(cfg Config) (JWTService, error) {
	if cfg.Verify && cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	cache, err := lru.New[string, *Claims](claimCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create claim cache: %w", err)
	}
	return &jwtService{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
		verify: cfg.Verify,
		cache:  cache,
		now:    time.Now,
	}, nil
}

func (s *jwtService) GenerateAccessToken(identity model.Identity) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	now := s.now()
	exp := now.Add(s.expiry)
	c := Claims{
		Email: identity.Email,
		Name:  identity.Name,
		Rol:   identity.Role.Claim(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

func (s *jwtService) ValidateToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrBadToken
	}
	claims, ok := s.cache.Get(raw)
	if !ok {
		parsed, err := s.parse(raw)
		if err != nil {
			return nil, err
		}
		claims = parsed
		s.cache.Add(raw, claims)
	}
	if exp := claims.Expiry(); !exp.IsZero() && !s.now().Before(exp) {
		s.cache.Remove(raw)
		return nil, ErrExpiredToken
	}
	return claims, nil
}

func (s *jwtService) parse(raw string) (*Claims, error) {
	// expiry is checked by the caller against s.now
	if !s.verify {
		c := &Claims{}
		if _, _, err := jwt.NewParser().ParseUnverified(raw, c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
		}
		return c, nil
	}

	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}
