package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	spotifyadapter "github.com/renatooliveira/savethebeat/internal/adapter/spotify"
	"github.com/renatooliveira/savethebeat/internal/domain"
)

// ConnectFlow is the OAuth connect surface the handler delegates to.
type ConnectFlow interface {
	StartConnect(ctx context.Context, workspaceID, userID string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (domain.UserAuth, error)
	Verify(ctx context.Context, workspaceID, userID string) (*spotifyadapter.UserProfile, error)
}

// SpotifyHandler serves the browser-facing connect flow.
type SpotifyHandler struct {
	connect ConnectFlow
	logger  *zap.Logger
}

// NewSpotifyHandler wires the connect flow handler.
func NewSpotifyHandler(connect ConnectFlow, logger *zap.Logger) *SpotifyHandler {
	return &SpotifyHandler{connect: connect, logger: logger}
}

// Connect handles GET /spotify/connect and redirects the browser to the
// provider authorization page.
func (h *SpotifyHandler) Connect(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	userID := c.Query("user_id")
	if workspaceID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id and user_id are required"})
		return
	}

	authURL, err := h.connect.StartConnect(c.Request.Context(), workspaceID, userID)
	if err != nil {
		h.logger.Error("failed to start connect flow", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// Callback handles GET /spotify/callback, the provider redirect target.
func (h *SpotifyHandler) Callback(c *gin.Context) {
	if provErr := c.Query("error"); provErr != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": provErr})
		return
	}
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and state are required"})
		return
	}

	auth, err := h.connect.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		if errors.Is(err, domain.ErrStateInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired state"})
			return
		}
		h.logger.Error("connect callback failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	h.logger.Info("spotify account connected",
		zap.String("workspace_id", auth.WorkspaceID),
		zap.String("user_id", auth.UserID),
	)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(connectedPage))
}

// Verify handles GET /spotify/verify and reports whether a stored
// authorization still works.
func (h *SpotifyHandler) Verify(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	userID := c.Query("user_id")
	if workspaceID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id and user_id are required"})
		return
	}

	profile, err := h.connect.Verify(c.Request.Context(), workspaceID, userID)
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		c.JSON(http.StatusNotFound, gin.H{"connected": false, "error": "not_connected"})
	case errors.Is(err, domain.ErrReauthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"connected": false, "error": "reauth_required"})
	case err != nil:
		h.logger.Error("verify failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"connected":       true,
			"spotify_user_id": profile.ID,
			"display_name":    profile.DisplayName,
		})
	}
}

const connectedPage = `<!DOCTYPE html>
<html>
<head><title>Spotify Connected</title></head>
<body>
<h1>Spotify connected</h1>
<p>You can close this tab and go back to Slack.</p>
</body>
</html>`
