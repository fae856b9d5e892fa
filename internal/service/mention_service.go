package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	slackadapter "github.com/renatooliveira/savethebeat/internal/adapter/slack"
	spotifyadapter "github.com/renatooliveira/savethebeat/internal/adapter/spotify"
	"github.com/renatooliveira/savethebeat/internal/domain"
	"github.com/renatooliveira/savethebeat/internal/repository"
	"github.com/renatooliveira/savethebeat/internal/track"
)

// Reaction emoji per outcome.
const (
	reactionSaved        = "white_check_mark"
	reactionAlreadySaved = "recycle"
	reactionFailed       = "x"
)

// Ledger error codes.
const (
	errCodeAuthRequired  = "auth_required"
	errCodeReauthNeeded  = "reauth_required"
	errCodeTokenRefresh  = "token_refresh_failed"
	errCodeSpotifyFailed = "spotify_error"
)

// MentionService runs the end-to-end mention pipeline: thread history, link
// selection, credential resolution, idempotency-guarded save, and reaction
// feedback.
type MentionService struct {
	chat    slackadapter.Client
	music   spotifyadapter.Client
	tokens  *TokenManager
	users   repository.UserAuthRepository
	ledger  repository.SaveActionRepository
	baseURL string
	logger  *zap.Logger
}

// NewMentionService wires the mention pipeline.
func NewMentionService(
	chat slackadapter.Client,
	music spotifyadapter.Client,
	tokens *TokenManager,
	users repository.UserAuthRepository,
	ledger repository.SaveActionRepository,
	baseURL string,
	logger *zap.Logger,
) *MentionService {
	return &MentionService{
		chat:    chat,
		music:   music,
		tokens:  tokens,
		users:   users,
		ledger:  ledger,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Enqueue detaches processing of one mention so the webhook handler can
// acknowledge immediately. The handle is discarded; escaping failures are
// logged. Mentions in flight have no ordering guarantee between them.
func (s *MentionService) Enqueue(mention domain.MentionEvent) {
	go func() {
		if err := s.process(context.Background(), mention); err != nil {
			s.logger.Error("mention processing failed",
				zap.String("workspace_id", mention.WorkspaceID),
				zap.String("user_id", mention.UserID),
				zap.String("channel_id", mention.ChannelID),
				zap.String("thread_id", mention.ThreadID),
				zap.Error(err),
			)
		}
	}()
}

func (s *MentionService) process(ctx context.Context, mention domain.MentionEvent) error {
	log := s.logger.With(
		zap.String("workspace_id", mention.WorkspaceID),
		zap.String("user_id", mention.UserID),
		zap.String("channel_id", mention.ChannelID),
		zap.String("thread_id", mention.ThreadID),
	)

	if strings.Contains(strings.ToLower(mention.Text), "connect") {
		return s.sendConnectLink(ctx, mention, log)
	}

	messages, err := s.chat.FetchThreadReplies(ctx, mention.ChannelID, mention.ThreadID)
	if err != nil {
		s.react(ctx, mention, reactionFailed, log)
		return fmt.Errorf("fetch thread replies: %w", err)
	}
	log.Info("fetched thread messages", zap.Int("message_count", len(messages)))

	trackID, ok := track.FirstTrackInThread(messages)
	if !ok {
		// No track id known, so nothing to record in the ledger.
		log.Warn("no track links found in thread")
		s.react(ctx, mention, reactionFailed, log)
		return nil
	}
	log = log.With(zap.String("track_id", trackID))

	rec, err := s.users.Get(ctx, mention.WorkspaceID, mention.UserID)
	if err != nil {
		s.react(ctx, mention, reactionFailed, log)
		return fmt.Errorf("load user auth: %w", err)
	}
	if rec == nil {
		log.Warn("mention author has no spotify authorization")
		s.record(ctx, mention, trackID, domain.StatusFailed, errCodeAuthRequired, domain.ErrAuthRequired.Error(), log)
		s.react(ctx, mention, reactionFailed, log)
		return nil
	}

	accessToken, err := s.tokens.EnsureValidAccessToken(ctx, rec)
	if err != nil {
		code := errCodeTokenRefresh
		if errors.Is(err, domain.ErrReauthRequired) {
			code = errCodeReauthNeeded
		}
		log.Error("failed to obtain valid access token", zap.Error(err))
		s.record(ctx, mention, trackID, domain.StatusFailed, code, err.Error(), log)
		s.react(ctx, mention, reactionFailed, log)
		return nil
	}

	status, err := s.saveWithIdempotencyGuard(ctx, mention, trackID, accessToken, log)
	if err != nil {
		s.react(ctx, mention, reactionFailed, log)
		return err
	}

	s.react(ctx, mention, reactionFor(status), log)
	log.Info("mention processed", zap.String("status", string(status)))
	return nil
}

// saveWithIdempotencyGuard performs the ledger-guarded provider save. The
// ledger's unique key, not any in-process lock, is what makes the save
// at-most-once per (workspace, user, thread, track).
func (s *MentionService) saveWithIdempotencyGuard(ctx context.Context, mention domain.MentionEvent, trackID, accessToken string, log *zap.Logger) (domain.SaveStatus, error) {
	existing, err := s.ledger.Find(ctx, mention.WorkspaceID, mention.UserID, mention.ThreadID, trackID)
	if err != nil {
		return domain.StatusFailed, fmt.Errorf("ledger lookup: %w", err)
	}
	if existing != nil {
		// The original attempt already wrote the record; nothing new to add.
		log.Info("track already processed for this thread", zap.String("prior_status", string(existing.Status)))
		return domain.StatusAlreadySaved, nil
	}

	if err := s.music.SaveTrack(ctx, accessToken, trackID); err != nil {
		code, message := saveErrorDetails(err)
		log.Error("provider save failed", zap.String("error_code", code), zap.Error(err))
		s.record(ctx, mention, trackID, domain.StatusFailed, code, message, log)
		return domain.StatusFailed, nil
	}

	err = s.ledger.Insert(ctx, domain.SaveAction{
		WorkspaceID: mention.WorkspaceID,
		UserID:      mention.UserID,
		ChannelID:   mention.ChannelID,
		ThreadID:    mention.ThreadID,
		MentionID:   mention.MentionID,
		TrackID:     trackID,
		Status:      domain.StatusSaved,
	})
	if errors.Is(err, domain.ErrDuplicateSaveAction) {
		// A concurrent attempt won the race after our lookup. The provider
		// save that just happened is redundant but harmless.
		log.Info("concurrent attempt recorded the save first")
		return domain.StatusAlreadySaved, nil
	}
	if err != nil {
		// The library mutation succeeded; report it even though the ledger write failed.
		log.Error("failed to record save action", zap.Error(err))
	}
	return domain.StatusSaved, nil
}

func (s *MentionService) sendConnectLink(ctx context.Context, mention domain.MentionEvent, log *zap.Logger) error {
	connectURL := fmt.Sprintf("%s/spotify/connect?workspace_id=%s&user_id=%s",
		s.baseURL,
		url.QueryEscape(mention.WorkspaceID),
		url.QueryEscape(mention.UserID),
	)
	message := "Click here to connect your Spotify account: " + connectURL
	if err := s.chat.PostMessage(ctx, mention.UserID, message); err != nil {
		return fmt.Errorf("send connect link: %w", err)
	}
	log.Info("sent connect link via DM")
	return nil
}

// record appends a ledger row. A duplicate-key collision means another
// attempt already recorded this tuple; the duplicate is suppressed.
func (s *MentionService) record(ctx context.Context, mention domain.MentionEvent, trackID string, status domain.SaveStatus, errorCode, errorMessage string, log *zap.Logger) {
	action := domain.SaveAction{
		WorkspaceID: mention.WorkspaceID,
		UserID:      mention.UserID,
		ChannelID:   mention.ChannelID,
		ThreadID:    mention.ThreadID,
		MentionID:   mention.MentionID,
		TrackID:     trackID,
		Status:      status,
	}
	if errorCode != "" {
		action.ErrorCode = &errorCode
		action.ErrorMessage = &errorMessage
	}
	err := s.ledger.Insert(ctx, action)
	if errors.Is(err, domain.ErrDuplicateSaveAction) {
		log.Debug("duplicate ledger record suppressed", zap.String("status", string(status)))
		return
	}
	if err != nil {
		log.Error("failed to record save action", zap.Error(err))
	}
}

// react posts outcome feedback. Feedback is not business-critical: failures
// are logged and swallowed.
func (s *MentionService) react(ctx context.Context, mention domain.MentionEvent, emoji string, log *zap.Logger) {
	if err := s.chat.AddReaction(ctx, mention.ChannelID, mention.MentionID, emoji); err != nil {
		log.Warn("failed to add reaction", zap.String("emoji", emoji), zap.Error(err))
	}
}

func reactionFor(status domain.SaveStatus) string {
	switch status {
	case domain.StatusSaved:
		return reactionSaved
	case domain.StatusAlreadySaved:
		return reactionAlreadySaved
	case domain.StatusFailed:
		return reactionFailed
	}
	return reactionFailed
}

func saveErrorDetails(err error) (code, message string) {
	var apiErr *spotifyadapter.SaveAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message
	}
	return errCodeSpotifyFailed, err.Error()
}
