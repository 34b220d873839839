// Package jwtcodec encodes and decodes identity assertions as HS256-signed JWTs.
package jwtcodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thejerf/abtime"
	domainauth "github.com/target/itemvault/internal/domain/auth"
)

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = time.Hour

// ErrInvalidToken is wrapped by every Decode failure: bad signature, malformed
// structure, unexpected algorithm, missing claims or expiry.
var ErrInvalidToken = errors.New("invalid token")

// Options configures a Codec.
type Options struct {
	// Secret is the process-wide HMAC key. Required.
	Secret string
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// Clock defaults to wall-clock time. Tests pass an abtime.ManualTime.
	Clock abtime.AbstractTime
}

// Codec is safe for concurrent use; it holds no mutable state.
type Codec struct {
	secret []byte
	ttl    time.Duration
	clock  abtime.AbstractTime
	parser *jwt.Parser
}

type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// New creates a Codec.
func New(opts Options) (*Codec, error) {
	if opts.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", opts.TTL)
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = abtime.NewRealTime()
	}

	return &Codec{
		secret: []byte(opts.Secret),
		ttl:    opts.TTL,
		clock:  opts.Clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(opts.Clock.Now),
		),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts Options) *Codec {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// TTL returns the configured validity window.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Encode signs id with iat=now and exp=now+TTL, both truncated to whole seconds.
// The returned identity carries the timestamps that were signed.
func (c *Codec) Encode(id domainauth.Identity) (string, domainauth.Identity, error) {
	if id.Subject == "" {
		return "", domainauth.Identity{}, errors.New("identity subject is required")
	}
	if !id.Role.Valid() {
		return "", domainauth.Identity{}, fmt.Errorf("identity role %q: %w", id.Role, domainauth.ErrUnknownRole)
	}

	now := c.clock.Now()
	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(now.Add(c.ttl))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: id.Username,
		Role:     string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  iat,
			ExpiresAt: exp,
		},
	})

	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", domainauth.Identity{}, fmt.Errorf("sign token: %w", err)
	}

	id.IssuedAt = iat.Time
	id.ExpiresAt = exp.Time
	return signed, id, nil
}

// Decode verifies the signature and expiry of token. A token expiring at T is
// rejected at any time >= T; no leeway is applied.
func (c *Codec) Decode(token string) (domainauth.Identity, error) {
	var cl claims
	_, err := c.parser.ParseWithClaims(token, &cl, c.keyFunc)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if cl.Subject == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role := domainauth.Role(cl.Role)
	if !role.Valid() {
		return domainauth.Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, cl.Role)
	}

	id := domainauth.Identity{
		Subject:   cl.Subject,
		Username:  cl.Username,
		Role:      role,
		ExpiresAt: cl.ExpiresAt.Time,
	}
	if cl.IssuedAt != nil {
		id.IssuedAt = cl.IssuedAt.Time
	}
	return id, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}
