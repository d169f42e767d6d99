package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workboard/workboard-api/internal/core/domain"
)

// DefaultIssuer is the issuer claim written into every token.
const DefaultIssuer = "workboard"

// JWTCodec issues and verifies HS256 bearer tokens carrying the user email as subject.
type JWTCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// JWTConfig configures a JWTCodec.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Now is the clock used for both issuing and verifying. Defaults to time.Now.
	Now func() time.Time
}

func NewJWTCodec(cfg JWTConfig) *JWTCodec {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTCodec{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: cfg.Now}
}

// Issue signs {iss, sub, iat, exp}.
func (c *JWTCodec) Issue(subject string) (string, time.Time, error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: signing secret is empty", domain.ErrTokenCreation)
	}
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty subject", domain.ErrTokenCreation)
	}

	now := c.now()
	expiresAt := now.Add(c.ttl).Truncate(jwt.TimePrecision)
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", domain.ErrTokenCreation, err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, issuer and expiry. Every failure yields
// domain.ErrInvalidToken so callers cannot learn which check failed.
func (c *JWTCodec) Verify(token string) (string, error) {
	if token == "" || len(c.secret) == 0 {
		return "", domain.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
