package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	oauthadapter "github.com/renatooliveira/savethebeat/internal/adapter/oauth"
	spotifyadapter "github.com/renatooliveira/savethebeat/internal/adapter/spotify"
	"github.com/renatooliveira/savethebeat/internal/domain"
	"github.com/renatooliveira/savethebeat/internal/repository"
)

// ConnectService runs the OAuth connect/callback flow that populates the
// authorization store consumed by the mention pipeline.
type ConnectService struct {
	states    repository.ConnectStateStore
	exchanger oauthadapter.TokenExchanger
	music     spotifyadapter.Client
	users     repository.UserAuthRepository
	tokens    *TokenManager
	logger    *zap.Logger
}

// NewConnectService wires the connect flow.
func NewConnectService(
	states repository.ConnectStateStore,
	exchanger oauthadapter.TokenExchanger,
	music spotifyadapter.Client,
	users repository.UserAuthRepository,
	tokens *TokenManager,
	logger *zap.Logger,
) *ConnectService {
	return &ConnectService{
		states:    states,
		exchanger: exchanger,
		music:     music,
		users:     users,
		tokens:    tokens,
		logger:    logger,
	}
}

// StartConnect issues a state token bound to the Slack identity and returns
// the provider authorization URL to redirect the user to.
func (s *ConnectService) StartConnect(ctx context.Context, workspaceID, userID string) (string, error) {
	token, err := s.states.Issue(ctx, workspaceID, userID)
	if err != nil {
		return "", fmt.Errorf("issue connect state: %w", err)
	}
	s.logger.Info("starting spotify connect flow",
		zap.String("workspace_id", workspaceID),
		zap.String("user_id", userID),
	)
	return s.exchanger.AuthCodeURL(token), nil
}

// HandleCallback consumes the state token, exchanges the code, and upserts
// the authorization record. Returns domain.ErrStateInvalid when the state is
// unknown, already used, or expired.
func (s *ConnectService) HandleCallback(ctx context.Context, code, state string) (domain.UserAuth, error) {
	connectState, err := s.states.Consume(ctx, state)
	if err != nil {
		return domain.UserAuth{}, fmt.Errorf("consume connect state: %w", err)
	}
	if connectState == nil {
		return domain.UserAuth{}, domain.ErrStateInvalid
	}

	pair, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return domain.UserAuth{}, fmt.Errorf("exchange code: %w", err)
	}

	// Best effort: the save path works without the provider-side user id.
	var spotifyUserID *string
	if profile, err := s.music.CurrentUser(ctx, pair.AccessToken); err != nil {
		s.logger.Warn("failed to fetch spotify profile on callback", zap.Error(err))
	} else {
		spotifyUserID = &profile.ID
	}

	auth, err := s.users.Upsert(ctx, repository.UpsertUserAuthParams{
		WorkspaceID:   connectState.WorkspaceID,
		UserID:        connectState.UserID,
		SpotifyUserID: spotifyUserID,
		AccessToken:   pair.AccessToken,
		RefreshToken:  pair.RefreshToken,
		ExpiresAt:     pair.ExpiresAt,
	})
	if err != nil {
		return domain.UserAuth{}, fmt.Errorf("store authorization: %w", err)
	}

	s.logger.Info("stored spotify authorization",
		zap.Int64("user_auth_id", auth.ID),
		zap.String("workspace_id", auth.WorkspaceID),
		zap.String("user_id", auth.UserID),
	)
	return auth, nil
}

// Verify confirms a stored authorization still works, refreshing the token
// when needed, and returns the provider profile.
func (s *ConnectService) Verify(ctx context.Context, workspaceID, userID string) (*spotifyadapter.UserProfile, error) {
	rec, err := s.users.Get(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("load user auth: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrAuthRequired
	}

	accessToken, err := s.tokens.EnsureValidAccessToken(ctx, rec)
	if err != nil {
		return nil, err
	}
	profile, err := s.music.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return profile, nil
}
