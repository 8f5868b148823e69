// Package auth issues the short-lived tokens that let browsers open the event stream,
// where custom headers such as X-API-Key cannot be sent.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	streamSubject   = "event-stream"
	defaultTokenTTL = time.Minute
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrNoSecret     = errors.New("token secret not configured")
)

// IssueStreamToken signs a token valid for ttl from now.
func IssueStreamToken(secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   streamSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing stream token: %w", err)
	}
	return signed, expires, nil
}

// ParseStreamToken checks signature, expiry and subject.
func ParseStreamToken(tokenString, secret string) error {
	if secret == "" {
		return ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return ErrTokenInvalid
	}
	if claims.Subject != streamSubject {
		return fmt.Errorf("%w: unexpected subject %q", ErrTokenInvalid, claims.Subject)
	}
	return nil
}
