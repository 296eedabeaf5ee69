package jwt

import (
	"crypto"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/hostjwt/keys"
)

// ErrSign wraps signing failures.
var ErrSign = errors.New("token signing failed")

// Token is a signed token whose string form is computed on demand.
type Token struct {
	Payload jwt.MapClaims
	Headers map[string]any
	method  jwt.SigningMethod
	key     crypto.Signer
}

// NewToken binds payload and headers to key. Headers are applied on top of alg and typ.
func NewToken(payload jwt.MapClaims, headers map[string]any, key *keys.SigningKey) *Token {
	return &Token{
		Payload: payload,
		Headers: headers,
		method:  key.Method,
		key:     key.Key,
	}
}

// Algorithm returns the JWS alg header value.
func (t *Token) Algorithm() string {
	return t.method.Alg()
}

// SignedString signs the token. ECDSA signatures are randomized, so repeated calls return
// different strings that all verify against the same key.
func (t *Token) SignedString() (string, error) {
	if t == nil || t.method == nil || t.key == nil {
		return "", fmt.Errorf("%w: token has no signing key", ErrSign)
	}
	token := jwt.NewWithClaims(t.method, t.Payload)
	for k, v := range t.Headers {
		token.Header[k] = v
	}
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSign, err)
	}
	return signed, nil
}

// String returns the signed token, or an empty string if signing fails.
func (t *Token) String() string {
	s, err := t.SignedString()
	if err != nil {
		return ""
	}
	return s
}

// MarshalText lets encoders emit the signed form.
func (t *Token) MarshalText() ([]byte, error) {
	s, err := t.SignedString()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
