package track

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

const sampleID = "3n3Ppam7vgaVa1iaRUc9Lp"

func TestExtractTrackIDsHTTPSURL(t *testing.T) {
	ids := ExtractTrackIDs("https://open.spotify.com/track/" + sampleID)
	require.Equal(t, []string{sampleID}, ids)
}

func TestExtractTrackIDsURLWithQuery(t *testing.T) {
	ids := ExtractTrackIDs("https://open.spotify.com/track/" + sampleID + "?si=abc123def456")
	require.Equal(t, []string{sampleID}, ids)
}

func TestExtractTrackIDsHTTPURL(t *testing.T) {
	ids := ExtractTrackIDs("http://open.spotify.com/track/" + sampleID)
	require.Equal(t, []string{sampleID}, ids)
}

func TestExtractTrackIDsURIForm(t *testing.T) {
	ids := ExtractTrackIDs("spotify:track:" + sampleID)
	require.Equal(t, []string{sampleID}, ids)
}

func TestExtractTrackIDsURLAndURIEquivalent(t *testing.T) {
	fromURL := ExtractTrackIDs("https://open.spotify.com/track/" + sampleID)
	fromURI := ExtractTrackIDs("spotify:track:" + sampleID)
	require.Equal(t, fromURL, fromURI)
}

func TestExtractTrackIDsEmbeddedInText(t *testing.T) {
	ids := ExtractTrackIDs("check out https://open.spotify.com/track/" + sampleID + " it's great")
	require.Equal(t, []string{sampleID}, ids)
}

func TestExtractTrackIDsLeftToRightOrder(t *testing.T) {
	text := "spotify:track:1n3Ppam7vgaVa1iaRUc9Lp then https://open.spotify.com/track/2n3Ppam7vgaVa1iaRUc9Lp"
	ids := ExtractTrackIDs(text)
	require.Equal(t, []string{"1n3Ppam7vgaVa1iaRUc9Lp", "2n3Ppam7vgaVa1iaRUc9Lp"}, ids)
}

func TestExtractTrackIDsSkipsMalformedID(t *testing.T) {
	require.Empty(t, ExtractTrackIDs("https://open.spotify.com/track/tooshort"))
}

func TestExtractTrackIDsIgnoresOtherResourceTypes(t *testing.T) {
	require.Empty(t, ExtractTrackIDs("https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"))
}

func TestExtractTrackIDsNoLinks(t *testing.T) {
	require.Empty(t, ExtractTrackIDs("no links in here"))
}

func TestFirstTrackInThreadOrdering(t *testing.T) {
	messages := []domain.ThreadMessage{
		{Timestamp: "1700000001.000000", Text: "A: https://open.spotify.com/track/1n3Ppam7vgaVa1iaRUc9Lp"},
		{Timestamp: "1700000002.000000", Text: "B: https://open.spotify.com/track/2n3Ppam7vgaVa1iaRUc9Lp"},
		{Timestamp: "1700000003.000000", Text: "C: spotify:track:3n3Ppam7vgaVa1iaRUc9Lp"},
	}
	id, ok := FirstTrackInThread(messages)
	require.True(t, ok)
	require.Equal(t, "1n3Ppam7vgaVa1iaRUc9Lp", id)
}

func TestFirstTrackInThreadSkipsLinklessMessages(t *testing.T) {
	messages := []domain.ThreadMessage{
		{Timestamp: "1700000001.000000", Text: "no link here"},
		{Timestamp: "1700000002.000000", Text: "spotify:track:" + sampleID},
	}
	id, ok := FirstTrackInThread(messages)
	require.True(t, ok)
	require.Equal(t, sampleID, id)
}

func TestFirstTrackInThreadEmpty(t *testing.T) {
	_, ok := FirstTrackInThread(nil)
	require.False(t, ok)

	_, ok = FirstTrackInThread([]domain.ThreadMessage{{Text: "nope"}, {Text: "still nope"}})
	require.False(t, ok)
}
