package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/securenotes/apiserver/internal/failure"
)

const minSecretBytes = 32

var (
	errUnsupportedAlg  = errors.New("unsupported signing algorithm")
	errUnsupportedType = errors.New("unsupported token type")
)

// Claims are the token fields trusted after verification.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HMAC-signed JWTs. The key is fixed for the
// lifetime of the codec.
type TokenCodec struct {
	key    []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec decodes a base64 secret and picks the HMAC variant from the
// key size: HS256 below 48 bytes, HS384 below 64, HS512 otherwise.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, failure.New(failure.ErrConfigurationMissing, "JWT_SECRET is required")
	}
	key, err := decodeSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("decode JWT_SECRET: %w", err)
	}
	if len(key) < minSecretBytes {
		return nil, fmt.Errorf("JWT_SECRET must decode to at least %d bytes, got %d", minSecretBytes, len(key))
	}
	if ttl <= 0 {
		return nil, errors.New("token expiration must be positive")
	}

	return &TokenCodec{
		key:    key,
		method: methodForKey(key),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func decodeSecret(secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err == nil {
		return key, nil
	}
	if key, urlErr := base64.URLEncoding.DecodeString(secret); urlErr == nil {
		return key, nil
	}
	return nil, err
}

func methodForKey(key []byte) *jwt.SigningMethodHMAC {
	switch {
	case len(key) >= 64:
		return jwt.SigningMethodHS512
	case len(key) >= 48:
		return jwt.SigningMethodHS384
	default:
		return jwt.SigningMethodHS256
	}
}

// Algorithm returns the JWT alg name used for signing.
func (c *TokenCodec) Algorithm() string {
	return c.method.Alg()
}

// TTL returns the configured token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the principal. Only the username and the validity
// window are embedded.
func (c *TokenCodec) Issue(p *Principal) (string, error) {
	if p == nil || strings.TrimSpace(p.Username) == "" {
		return "", errors.New("principal username is required")
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   p.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	token := jwt.NewWithClaims(c.method, claims)
	return token.SignedString(c.key)
}

// Verify checks the signature and expiration of tokenString and returns its
// claims. Errors are one of the failure.ErrToken* kinds.
func (c *TokenCodec) Verify(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, failure.New(failure.ErrTokenInvalidArgument, "JWT claims string is empty")
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, c.keyFunc,
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, classifyTokenError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, failure.New(failure.ErrTokenMalformed, "JWT token has no subject")
	}

	out := Claims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (c *TokenCodec) keyFunc(token *jwt.Token) (any, error) {
	if typ, ok := token.Header["typ"]; ok {
		if s, _ := typ.(string); !strings.EqualFold(s, "JWT") {
			return nil, fmt.Errorf("%w: %v", errUnsupportedType, typ)
		}
	}
	if token.Method == nil || token.Method.Alg() != c.method.Alg() {
		return nil, fmt.Errorf("%w: %v", errUnsupportedAlg, token.Header["alg"])
	}
	return c.key, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, errUnsupportedAlg),
		errors.Is(err, errUnsupportedType),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return &failure.Error{Kind: failure.ErrTokenUnsupported, Message: "JWT token is unsupported: " + err.Error()}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &failure.Error{Kind: failure.ErrTokenMalformed, Message: "Invalid JWT token: " + err.Error()}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &failure.Error{Kind: failure.ErrTokenBadSignature, Message: "Invalid JWT signature: " + err.Error()}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &failure.Error{Kind: failure.ErrTokenExpired, Message: "JWT token is expired: " + err.Error()}
	default:
		return &failure.Error{Kind: failure.ErrTokenMalformed, Message: "Invalid JWT token: " + err.Error()}
	}
}
