// Package auth issues and validates the HS256 bearer tokens that identify blog
// authors, and hashes their passwords.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/blog-api/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// DefaultClockSkew is tolerated when checking exp and iat.
	DefaultClockSkew = 30 * time.Second

	// legacyIDClaim carries the user id in tokens minted before sub was used.
	legacyIDClaim = "id"
)

// Codec signs and verifies identity tokens with a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	skew   time.Duration
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithTTL sets the token lifetime. Zero issues tokens without exp.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// WithClockSkew overrides the tolerated clock skew.
func WithClockSkew(skew time.Duration) CodecOption {
	return func(c *Codec) {
		c.skew = skew
	}
}

// NewCodec creates a codec. The secret must not be empty.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret cannot be empty")
	}
	c := &Codec{
		secret: []byte(secret),
		skew:   DefaultClockSkew,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a fresh token for subject.
func (c *Codec) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := c.now().UTC().Truncate(time.Second)
	builder := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(now)
	if c.ttl > 0 {
		builder = builder.Expiration(now.Add(c.ttl))
	}

	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Validate verifies token and returns the subject it binds.
func (c *Codec) Validate(token string) (string, error) {
	claims, err := c.Claims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Claims verifies token and returns its decoded identity claims.
//
// Checks run in order: structure, signature, registered claims, subject.
func (c *Codec) Claims(token string) (*models.IdentityClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrMalformedToken
	}

	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !json.Valid(msg.Payload()) {
		return nil, ErrMalformedToken
	}

	if !canonicalSegment(token[strings.LastIndexByte(token, '.')+1:]) {
		return nil, ErrBadSignature
	}
	if _, err := jws.Verify([]byte(token), jws.WithKey(jwa.HS256, c.secret)); err != nil {
		return nil, ErrBadSignature
	}

	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(c.now)),
		jwt.WithAcceptableSkew(c.skew),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims := &models.IdentityClaims{Subject: tok.Subject()}
	if claims.Subject == "" {
		if v, ok := tok.Get(legacyIDClaim); ok {
			if id, ok := v.(string); ok {
				claims.Subject = id
			}
		}
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	if iat := tok.IssuedAt(); !iat.IsZero() {
		claims.IssuedAt = &iat
	}
	if exp := tok.Expiration(); !exp.IsZero() {
		claims.ExpiresAt = &exp
	}

	return claims, nil
}

// canonicalSegment reports whether seg is strict unpadded base64url that
// re-encodes to itself. Lenient decoding ignores the trailing padding bits,
// which would let distinct signature strings verify as the same bytes.
func canonicalSegment(seg string) bool {
	raw, err := base64.RawURLEncoding.Strict().DecodeString(seg)
	if err != nil {
		return false
	}
	return base64.RawURLEncoding.EncodeToString(raw) == seg
}
