package slack

import (
	"encoding/json"
	"fmt"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

// Event request types Slack delivers to the webhook endpoint.
const (
	TypeURLVerification = "url_verification"
	TypeEventCallback   = "event_callback"

	eventAppMention = "app_mention"
)

// EventRequest is the top-level envelope of a Slack events payload. The Type
// discriminator selects between the url_verification handshake and wrapped
// event callbacks.
type EventRequest struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	EventTime int64           `json:"event_time,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

type innerEvent struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	Channel  string `json:"channel"`
	ThreadTS string `json:"thread_ts"`
}

// ParseEventRequest decodes the raw webhook body. Callers must have verified
// the signature first.
func ParseEventRequest(body []byte) (*EventRequest, error) {
	var req EventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode event request: %w", err)
	}
	return &req, nil
}

// MentionEvent extracts an app_mention from an event_callback envelope. The
// second return value is false for any other event type. A top-level message
// (no thread_ts) starts its own thread, so the mention's ts doubles as the
// thread id.
func (r *EventRequest) MentionEvent() (domain.MentionEvent, bool) {
	if r.Type != TypeEventCallback || len(r.Event) == 0 {
		return domain.MentionEvent{}, false
	}
	var ev innerEvent
	if err := json.Unmarshal(r.Event, &ev); err != nil || ev.Type != eventAppMention {
		return domain.MentionEvent{}, false
	}
	threadID := ev.ThreadTS
	if threadID == "" {
		threadID = ev.TS
	}
	return domain.MentionEvent{
		WorkspaceID: r.TeamID,
		UserID:      ev.User,
		ChannelID:   ev.Channel,
		ThreadID:    threadID,
		MentionID:   ev.TS,
		Text:        ev.Text,
	}, true
}
