package tokens_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chibo-dx/roster-api/internal/platform/auth/tokens"
	"github.com/chibo-dx/roster-api/internal/platform/config"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:      config.AuthModeJWT,
		Secret:    "test-secret",
		Issuer:    "test-iss",
		Audience:  "test-aud",
		ClockSkew: 0,
		TokenTTL:  time.Hour,
	}
}

func TestVerifier_Verify_ValidToken(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	cfg := testConfig()
	raw, err := tokens.NewIssuer(cfg, clk).Mint("member-123", "An", 5*time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	sub, err := tokens.NewVerifier(cfg, clk).Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "member-123" {
		t.Fatalf("sub mismatch: got %q", sub)
	}
}

func TestVerifier_Verify_Expired(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	cfg := testConfig()
	raw, err := tokens.NewIssuer(cfg, clk).Mint("member-123", "", time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clk.Advance(2 * time.Minute)

	if _, err := tokens.NewVerifier(cfg, clk).Verify(context.Background(), raw); !errors.Is(err, tokens.ErrUnauthorized) {
		t.Fatalf("Verify(expired) err=%v, want ErrUnauthorized", err)
	}
}

func TestVerifier_Verify_ClockSkewAllowsRecentExpiry(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	cfg := testConfig()
	cfg.ClockSkew = time.Minute
	raw, err := tokens.NewIssuer(cfg, clk).Mint("member-123", "", time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clk.Advance(90 * time.Second)

	if _, err := tokens.NewVerifier(cfg, clk).Verify(context.Background(), raw); err != nil {
		t.Fatalf("Verify within skew: %v", err)
	}
}

func TestVerifier_Verify_Rejects(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	cfg := testConfig()

	wrongSecret := cfg
	wrongSecret.Secret = "other"
	wrongIssuer := cfg
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := cfg
	wrongAudience.Audience = "other-aud"

	mint := func(c config.AuthConfig) string {
		raw, err := tokens.NewIssuer(c, clk).Mint("member-123", "", time.Minute)
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		return raw
	}
	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "member-123",
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none): %v", err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "garbage", raw: "not-a-jwt"},
		{name: "wrong secret", raw: mint(wrongSecret)},
		{name: "wrong issuer", raw: mint(wrongIssuer)},
		{name: "wrong audience", raw: mint(wrongAudience)},
		{name: "alg none", raw: noneToken},
	}
	v := tokens.NewVerifier(cfg, clk)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := v.Verify(context.Background(), tt.raw); !errors.Is(err, tokens.ErrUnauthorized) {
				t.Fatalf("Verify err=%v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestIssuer_Mint_RequiresSubjectAndSecret(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	if _, err := tokens.NewIssuer(cfg, nil).Mint("", "", 0); err == nil {
		t.Fatalf("Mint(empty subject) err=nil")
	}
	cfg.Secret = ""
	if _, err := tokens.NewIssuer(cfg, nil).Mint("sub", "", 0); err == nil {
		t.Fatalf("Mint(empty secret) err=nil")
	}
}
