// Package track extracts Spotify track identifiers from message text.
package track

import (
	"regexp"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

// Track IDs are 22 characters of Spotify's base62 alphabet. Candidates of any
// other length are skipped rather than rejected as errors.
var (
	urlPattern = regexp.MustCompile(`https?://open\.spotify\.com/track/([0-9A-Za-z]+)`)
	uriPattern = regexp.MustCompile(`spotify:track:([0-9A-Za-z]+)`)
)

const trackIDLength = 22

// ExtractTrackIDs returns every track id in text, in left-to-right order of
// occurrence. Both the web URL form (with optional query string) and the
// compact spotify:track: URI form are recognized.
func ExtractTrackIDs(text string) []string {
	type match struct {
		pos int
		id  string
	}
	var matches []match
	for _, pattern := range []*regexp.Regexp{urlPattern, uriPattern} {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			id := text[m[2]:m[3]]
			if len(id) != trackIDLength {
				continue
			}
			matches = append(matches, match{pos: m[0], id: id})
		}
	}

	var ids []string
	for len(matches) > 0 {
		first := 0
		for i := 1; i < len(matches); i++ {
			if matches[i].pos < matches[first].pos {
				first = i
			}
		}
		ids = append(ids, matches[first].id)
		matches = append(matches[:first], matches[first+1:]...)
	}
	return ids
}

// FirstTrackInThread scans messages in ascending timestamp order and returns
// the first track id found. Within a message the leftmost id wins.
func FirstTrackInThread(messages []domain.ThreadMessage) (string, bool) {
	for _, msg := range messages {
		if ids := ExtractTrackIDs(msg.Text); len(ids) > 0 {
			return ids[0], true
		}
	}
	return "", false
}
