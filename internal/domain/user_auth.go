package domain

import "time"

// UserAuth is the Spotify authorization record for one Slack identity.
// Exactly one live row exists per (workspace, user) pair; (re)authorization
// upserts it in place.
type UserAuth struct {
	ID            int64
	WorkspaceID   string
	UserID        string
	SpotifyUserID *string
	AccessToken   string
	RefreshToken  string
	ExpiresAt     time.Time
	Paused        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
