// Package slack implements the inbound webhook trust boundary: request
// signature verification and event envelope parsing.
package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

const (
	// signatureVersion is Slack's fixed version tag for the signing base string.
	signatureVersion = "v0"
	// maxSignatureAge is the replay-protection window.
	maxSignatureAge = 5 * time.Minute
)

// VerifySignature checks that rawBody was signed by signingSecret at the
// given timestamp. The expected signature is HMAC-SHA256 over
// "v0:{timestamp}:{body}", hex encoded with a "v0=" prefix, compared in
// constant time. A timestamp more than five minutes from now fails with
// ErrSignatureExpired even when the signature itself is correct; both checks
// always run. Must be called on the raw body before it is parsed.
func VerifySignature(signingSecret, timestamp string, rawBody []byte, provided string) error {
	requestTS, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return domain.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(rawBody)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	matches := hmac.Equal([]byte(expected), []byte(provided))

	skew := time.Since(time.Unix(requestTS, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSignatureAge {
		return domain.ErrSignatureExpired
	}
	if !matches {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// Sign computes the signature VerifySignature expects. Exposed for tests and
// local tooling that replays captured events.
func Sign(signingSecret, timestamp string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(rawBody)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}
