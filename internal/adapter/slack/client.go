// Package slack adapts the Slack Web API calls the mention pipeline depends
// on: reading thread history, posting reactions, and sending DMs.
package slack

import (
	"context"
	"fmt"
	"sort"

	slackapi "github.com/slack-go/slack"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

// Client is the chat-side collaborator consumed by the mention pipeline.
type Client interface {
	// FetchThreadReplies returns every message in the thread, oldest first.
	FetchThreadReplies(ctx context.Context, channelID, threadID string) ([]domain.ThreadMessage, error)
	// AddReaction attaches an emoji to the given message.
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	// PostMessage sends text to a channel or user DM.
	PostMessage(ctx context.Context, channelID, text string) error
}

// APIClient implements Client on slack-go.
type APIClient struct {
	api *slackapi.Client
}

var _ Client = (*APIClient)(nil)

// NewAPIClient constructs a Web API client for the given bot token.
func NewAPIClient(botToken string) *APIClient {
	return &APIClient{api: slackapi.New(botToken)}
}

func (c *APIClient) FetchThreadReplies(ctx context.Context, channelID, threadID string) ([]domain.ThreadMessage, error) {
	params := &slackapi.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadID,
		Limit:     200,
	}

	var messages []domain.ThreadMessage
	for {
		page, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("conversations.replies: %w", err)
		}
		for _, msg := range page {
			messages = append(messages, domain.ThreadMessage{
				Timestamp: msg.Timestamp,
				AuthorID:  msg.User,
				Text:      msg.Text,
			})
		}
		if !hasMore {
			break
		}
		params.Cursor = nextCursor
	}

	// Slack delivers replies oldest first; make the ordering contractual.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	return messages, nil
}

func (c *APIClient) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	err := c.api.AddReactionContext(ctx, emoji, slackapi.NewRefToMessage(channelID, messageID))
	if err != nil {
		// Reposting the same emoji on a reprocessed mention is not a failure.
		if err.Error() == "already_reacted" {
			return nil
		}
		return fmt.Errorf("reactions.add: %w", err)
	}
	return nil
}

func (c *APIClient) PostMessage(ctx context.Context, channelID, text string) error {
	if _, _, err := c.api.PostMessageContext(ctx, channelID, slackapi.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	return nil
}
