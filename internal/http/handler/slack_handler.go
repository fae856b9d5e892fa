// Package handler exposes the Gin handlers for the Slack webhook and the
// Spotify connect flow.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/renatooliveira/savethebeat/internal/domain"
	"github.com/renatooliveira/savethebeat/internal/slack"
)

// MentionEnqueuer detaches mention processing from the webhook response.
type MentionEnqueuer interface {
	Enqueue(mention domain.MentionEvent)
}

// SlackHandler terminates the Slack Events API webhook.
type SlackHandler struct {
	signingSecret string
	mentions      MentionEnqueuer
	logger        *zap.Logger
}

// NewSlackHandler wires the webhook handler.
func NewSlackHandler(signingSecret string, mentions MentionEnqueuer, logger *zap.Logger) *SlackHandler {
	return &SlackHandler{
		signingSecret: signingSecret,
		mentions:      mentions,
		logger:        logger,
	}
}

// Events handles POST /slack/events. The signature is verified on the raw
// body before anything is parsed, and every rejection gets the same generic
// 401 so callers learn nothing about which check failed. Accepted mentions
// are acknowledged immediately and processed in the background.
func (h *SlackHandler) Events(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	timestamp := c.GetHeader("X-Slack-Request-Timestamp")
	signature := c.GetHeader("X-Slack-Signature")
	if timestamp == "" || signature == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := slack.VerifySignature(h.signingSecret, timestamp, body, signature); err != nil {
		h.logger.Warn("rejected slack webhook", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	req, err := slack.ParseEventRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	switch req.Type {
	case slack.TypeURLVerification:
		c.JSON(http.StatusOK, gin.H{"challenge": req.Challenge})
	case slack.TypeEventCallback:
		if mention, ok := req.MentionEvent(); ok {
			h.mentions.Enqueue(mention)
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}
