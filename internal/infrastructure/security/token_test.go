package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestCodec(clock *fakeClock) *JWTCodec {
	return NewJWTCodec(JWTConfig{Secret: "test-secret", TTL: 15 * time.Minute, Now: clock.Now})
}

func TestJWTCodec_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	codec := newTestCodec(clock)

	token, expiresAt, err := codec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(clock.t.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", expiresAt)
	}

	subject, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "a@x.com" {
		t.Fatalf("expected subject a@x.com, got %q", subject)
	}
}

func TestJWTCodec_ExpiredToken(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	codec := newTestCodec(clock)

	token, expiresAt, err := codec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.t = expiresAt.Add(-time.Second)
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	clock.t = expiresAt
	if _, err := codec.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken at expiry, got %v", err)
	}

	clock.t = expiresAt.Add(time.Hour)
	if _, err := codec.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestJWTCodec_TamperedSignatureUsesGenericError(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(clock)

	token, _, err := codec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sigStart := strings.LastIndex(token, ".") + 1
	for i := sigStart; i < len(token)-1; i += 7 {
		b := []byte(token)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}

		_, err := codec.Verify(string(b))
		if err != domain.ErrInvalidToken {
			t.Fatalf("byte %d: expected exactly ErrInvalidToken, got %v", i, err)
		}
	}
}

func TestJWTCodec_RejectsForeignTokens(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(clock)
	exp := jwt.NewNumericDate(clock.t.Add(time.Hour))

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "someone-else", Subject: "a@x.com", ExpiresAt: exp,
	}).SignedString([]byte("test-secret"))

	wrongSecret, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: DefaultIssuer, Subject: "a@x.com", ExpiresAt: exp,
	}).SignedString([]byte("other-secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: DefaultIssuer, Subject: "a@x.com",
	}).SignedString([]byte("test-secret"))

	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Issuer: DefaultIssuer, Subject: "a@x.com", ExpiresAt: exp,
	}).SignedString([]byte("test-secret"))

	for name, token := range map[string]string{
		"wrong issuer": wrongIssuer,
		"wrong secret": wrongSecret,
		"no expiry":    noExpiry,
		"wrong alg":    wrongAlg,
		"garbage":      "not-a-token",
		"empty":        "",
	} {
		_, err := codec.Verify(token)
		if err != domain.ErrInvalidToken {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
		if err.Error() != "authentication required: token is invalid or expired" {
			t.Fatalf("%s: unexpected message %q", name, err.Error())
		}
	}
}

func TestJWTCodec_IssueWithoutSecret(t *testing.T) {
	codec := NewJWTCodec(JWTConfig{})

	if _, _, err := codec.Issue("a@x.com"); !errors.Is(err, domain.ErrTokenCreation) {
		t.Fatalf("expected ErrTokenCreation, got %v", err)
	}
}
