package domain

import "errors"

var (
	// ErrSignatureInvalid indicates the webhook signature does not match.
	ErrSignatureInvalid = errors.New("slack: signature invalid")
	// ErrSignatureExpired indicates the request timestamp is outside the replay window.
	ErrSignatureExpired = errors.New("slack: signature expired")
	// ErrSignatureMissing indicates the signature headers were absent.
	ErrSignatureMissing = errors.New("slack: signature headers missing")

	// ErrStateInvalid indicates the OAuth state token is unknown, consumed, or expired.
	ErrStateInvalid = errors.New("oauth: state invalid or expired")

	// ErrNoLinkFound indicates the thread contains no recognizable track link.
	ErrNoLinkFound = errors.New("mention: no track link found")
	// ErrAuthRequired indicates the mention author has no authorization record.
	ErrAuthRequired = errors.New("mention: spotify authorization required")
	// ErrReauthRequired indicates the provider rejected the refresh token; the
	// user must redo the connect flow.
	ErrReauthRequired = errors.New("mention: reauthorization required")
	// ErrTokenRefreshFailed indicates a transient failure refreshing the access token.
	ErrTokenRefreshFailed = errors.New("mention: token refresh failed")

	// ErrDuplicateSaveAction signals the ledger's unique key was violated;
	// another writer recorded the same (workspace, user, thread, track) first.
	ErrDuplicateSaveAction = errors.New("ledger: duplicate save action")
)
