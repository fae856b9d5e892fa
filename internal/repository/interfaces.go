package repository

import (
	"context"
	"time"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

// UserAuthRepository persists Spotify authorization records keyed by
// (workspace, user).
type UserAuthRepository interface {
	// Get returns the record for the identity, or nil when none exists.
	Get(ctx context.Context, workspaceID, userID string) (*domain.UserAuth, error)
	// Upsert creates the record or replaces its token fields in place. The
	// unique key on (workspace_id, user_id) guarantees a single live row.
	Upsert(ctx context.Context, params UpsertUserAuthParams) (domain.UserAuth, error)
	// UpdateTokens overwrites the stored token pair and expiry after a refresh.
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
}

// UpsertUserAuthParams carries the fields written on (re)authorization.
type UpsertUserAuthParams struct {
	WorkspaceID   string
	UserID        string
	SpotifyUserID *string
	AccessToken   string
	RefreshToken  string
	ExpiresAt     time.Time
}

// SaveActionRepository is the append-only idempotency ledger. Dedup is
// enforced by the storage layer's unique key, never by in-process locking, so
// it holds across concurrent processes.
type SaveActionRepository interface {
	// Find returns the ledger row for the key, or nil when none exists.
	Find(ctx context.Context, workspaceID, userID, threadID, trackID string) (*domain.SaveAction, error)
	// Insert appends one row. Returns domain.ErrDuplicateSaveAction when
	// another writer already recorded the same (workspace, user, thread,
	// track) tuple; callers handle that race explicitly.
	Insert(ctx context.Context, action domain.SaveAction) error
}

// ConnectStateStore issues and consumes single-use CSRF state tokens for the
// OAuth connect flow. Validation and consumption are one atomic operation.
type ConnectStateStore interface {
	Issue(ctx context.Context, workspaceID, userID string) (string, error)
	// Consume removes and returns the state for token, or nil when the token
	// is unknown, already consumed, or older than the TTL.
	Consume(ctx context.Context, token string) (*domain.ConnectState, error)
}
