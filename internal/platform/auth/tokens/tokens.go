// Package tokens mints and verifies HS256 bearer tokens.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chibo-dx/roster-api/internal/platform/config"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Claims are the registered claims plus the display name shown in request logs.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	cfg    config.AuthConfig
	clock  Clock
	parser *jwt.Parser
}

func NewVerifier(cfg config.AuthConfig, clock Clock) *Verifier {
	if clock == nil {
		clock = realClock{}
	}
	return &Verifier{
		cfg:   cfg,
		clock: clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithLeeway(cfg.ClockSkew),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

// Verify checks signature, iss, aud, exp and nbf and returns the `sub` claim.
func (v *Verifier) Verify(ctx context.Context, raw string) (string, error) {
	_ = ctx
	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub", ErrUnauthorized)
	}
	return claims.Subject, nil
}

type Issuer struct {
	cfg   config.AuthConfig
	clock Clock
}

func NewIssuer(cfg config.AuthConfig, clock Clock) *Issuer {
	if clock == nil {
		clock = realClock{}
	}
	return &Issuer{cfg: cfg, clock: clock}
}

// Mint signs a token for subject valid for ttl; ttl <= 0 uses the configured TokenTTL.
func (i *Issuer) Mint(subject, name string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("empty subject")
	}
	if i.cfg.Secret == "" {
		return "", errors.New("empty signing secret")
	}
	if ttl <= 0 {
		ttl = i.cfg.TokenTTL
	}
	now := i.clock.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
}
