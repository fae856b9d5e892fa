package domain

import "time"

// MentionEvent carries the metadata of an app mention, extracted from the
// Slack event callback. It is transient and never persisted.
type MentionEvent struct {
	WorkspaceID string
	UserID      string
	ChannelID   string
	ThreadID    string
	MentionID   string
	Text        string
}

// ThreadMessage is a single message in a conversation thread, consumed only
// to extract track links. Timestamp is Slack's message ts, which sorts
// lexicographically in chronological order.
type ThreadMessage struct {
	Timestamp string
	AuthorID  string
	Text      string
}

// ConnectState binds an OAuth authorization redirect to the Slack identity
// that initiated it. Stored in the state store for the lifetime of the
// connect flow only.
type ConnectState struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
