package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipstream/backend/internal/models"
)

// SlotStore persists the single refresh-token slot kept on each user record.
// A user has at most one valid refresh token at any time; rotating writes the
// new value over the old one, revoking clears it.
type SlotStore interface {
	// SetRefreshToken unconditionally overwrites the slot (login).
	SetRefreshToken(ctx context.Context, userID, token string) error
	// SwapRefreshToken writes next only if the slot still holds current.
	// Implementations return ErrSlotMismatch when the compare fails.
	SwapRefreshToken(ctx context.Context, userID, current, next string) error
	// ClearRefreshToken empties the slot (logout).
	ClearRefreshToken(ctx context.Context, userID string) error
}

// Manager owns the session-token lifecycle: issuing pairs on login, one-time
// rotation on refresh, and unilateral revocation on logout.
type Manager struct {
	codec *TokenCodec
	store SlotStore
}

// NewManager constructs a Manager around the provided codec and slot store.
func NewManager(codec *TokenCodec, store SlotStore) *Manager {
	if codec == nil {
		panic("auth: token codec must not be nil")
	}
	if store == nil {
		panic("auth: slot store must not be nil")
	}
	return &Manager{codec: codec, store: store}
}

// Rotate issues a fresh token pair for the user and persists the new refresh
// token, overwriting any prior value. This is the only way a refresh token
// becomes current. Store failures surface as ErrTokenIssuance.
func (m *Manager) Rotate(ctx context.Context, userID string) (models.TokenPair, error) {
	pair, err := m.mint(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenIssuance, err)
	}
	return pair, nil
}

// Refresh exchanges a presented refresh token for a new pair. Validity
// requires both a good signature/expiry and exact equality with the user's
// stored slot; the swap is a compare-and-swap so a token can be redeemed at
// most once. Of two concurrent refreshes only the first writer wins; the
// loser fails ErrTokenMismatch and must log in again.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	if presented == "" {
		return models.TokenPair{}, ErrInvalidToken
	}

	userID, err := m.codec.VerifyRefresh(presented)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := m.mint(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.SwapRefreshToken(ctx, userID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, ErrSlotMismatch) {
			return models.TokenPair{}, ErrTokenMismatch
		}
		return models.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenIssuance, err)
	}
	return pair, nil
}

// Revoke clears the user's refresh-token slot. Every outstanding refresh
// token becomes unusable immediately, expired or not.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, ErrSlotMismatch) {
		return fmt.Errorf("%w: %w", ErrTokenIssuance, err)
	}
	return nil
}

func (m *Manager) mint(userID string) (models.TokenPair, error) {
	access, accessExp, err := m.codec.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenIssuance, err)
	}
	refresh, refreshExp, err := m.codec.IssueRefresh(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenIssuance, err)
	}
	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ErrSlotMismatch is returned by slot stores when a compare-and-swap finds a
// different stored value, or no user row at all.
var ErrSlotMismatch = errors.New("refresh token slot changed")
