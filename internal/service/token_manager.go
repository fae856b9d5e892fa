package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	oauthadapter "github.com/renatooliveira/savethebeat/internal/adapter/oauth"
	"github.com/renatooliveira/savethebeat/internal/domain"
	"github.com/renatooliveira/savethebeat/internal/repository"
)

// refreshMargin is how close to expiry a token may get before it is
// proactively refreshed.
const refreshMargin = 5 * time.Minute

// TokenManager keeps stored access tokens usable, refreshing them on demand.
//
// Refreshes are not serialized per user: two concurrent callers may both
// refresh the same record. The persisted row always holds one coherent pair
// (last writer wins), which the provider accepts.
type TokenManager struct {
	users     repository.UserAuthRepository
	exchanger oauthadapter.TokenExchanger
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenManager wires the token lifecycle manager.
func NewTokenManager(users repository.UserAuthRepository, exchanger oauthadapter.TokenExchanger, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		users:     users,
		exchanger: exchanger,
		logger:    logger,
		now:       time.Now,
	}
}

// EnsureValidAccessToken returns an access token with at least five minutes
// of validity left, exchanging the refresh token first when needed. A
// provider rejection of the refresh token maps to domain.ErrReauthRequired;
// transient failures map to domain.ErrTokenRefreshFailed and are not retried.
func (m *TokenManager) EnsureValidAccessToken(ctx context.Context, rec *domain.UserAuth) (string, error) {
	if rec.ExpiresAt.Sub(m.now()) >= refreshMargin {
		return rec.AccessToken, nil
	}

	m.logger.Info("access token expiring, refreshing",
		zap.Int64("user_auth_id", rec.ID),
		zap.String("workspace_id", rec.WorkspaceID),
		zap.String("user_id", rec.UserID),
		zap.Time("expires_at", rec.ExpiresAt),
	)

	pair, err := m.exchanger.RefreshToken(ctx, rec.RefreshToken)
	if err != nil {
		if errors.Is(err, oauthadapter.ErrRefreshRejected) {
			return "", fmt.Errorf("%w: %v", domain.ErrReauthRequired, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}

	// Spotify rotates the refresh token only sometimes; keep the old one
	// when the response omits it.
	refreshToken := pair.RefreshToken
	if refreshToken == "" {
		refreshToken = rec.RefreshToken
	}

	if err := m.users.UpdateTokens(ctx, rec.ID, pair.AccessToken, refreshToken, pair.ExpiresAt); err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	m.logger.Info("access token refreshed",
		zap.Int64("user_auth_id", rec.ID),
		zap.Time("expires_at", pair.ExpiresAt),
		zap.Bool("refresh_token_rotated", pair.RefreshToken != ""),
	)
	return pair.AccessToken, nil
}
