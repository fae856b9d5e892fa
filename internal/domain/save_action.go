package domain

import "time"

// SaveStatus is the outcome of a save attempt.
type SaveStatus string

const (
	StatusSaved        SaveStatus = "saved"
	StatusAlreadySaved SaveStatus = "already_saved"
	StatusFailed       SaveStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s SaveStatus) Valid() bool {
	switch s {
	case StatusSaved, StatusAlreadySaved, StatusFailed:
		return true
	}
	return false
}

// SaveAction is one row of the append-only save ledger. The storage layer
// enforces uniqueness on (workspace, user, thread, track); rows are never
// updated or deleted.
type SaveAction struct {
	ID           int64
	WorkspaceID  string
	UserID       string
	ChannelID    string
	ThreadID     string
	MentionID    string
	TrackID      string
	Status       SaveStatus
	ErrorCode    *string
	ErrorMessage *string
	CreatedAt    time.Time
}
