package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCodec signs and verifies the two token kinds. Access and refresh
// tokens carry their own secrets and expiry policies: access tokens live for
// minutes and are never persisted, refresh tokens live for days and must
// additionally match the user's stored slot to be usable.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenCodec constructs a codec with independent secrets and TTLs per token kind.
func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the time source. Useful for expiry tests.
func (c *TokenCodec) WithNowFunc(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// IssueAccess mints a short-lived access token for the user.
func (c *TokenCodec) IssueAccess(userID string) (string, time.Time, error) {
	return c.issue(userID, c.accessSecret, c.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the user.
func (c *TokenCodec) IssueRefresh(userID string) (string, time.Time, error) {
	return c.issue(userID, c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) issue(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := c.now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		// Unique per token: two rotations within the same second must still
		// produce distinct refresh tokens for the slot comparison to work.
		ID: uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccess validates an access token and returns the subject user id.
func (c *TokenCodec) VerifyAccess(token string) (string, error) {
	return c.verify(token, c.accessSecret)
}

// VerifyRefresh validates a refresh token's signature and expiry and returns
// the subject user id. Slot equality is the Manager's concern.
func (c *TokenCodec) VerifyRefresh(token string) (string, error) {
	return c.verify(token, c.refreshSecret)
}

func (c *TokenCodec) verify(token string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
