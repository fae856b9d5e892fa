package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/renatooliveira/savethebeat/internal/config"
	"github.com/renatooliveira/savethebeat/internal/http/handler"
	httpmiddleware "github.com/renatooliveira/savethebeat/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, slackHandler *handler.SlackHandler, spotifyHandler *handler.SpotifyHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.POST("/slack/events", slackHandler.Events)

	spotify := r.Group("/spotify")
	{
		spotify.GET("/connect", spotifyHandler.Connect)
		spotify.GET("/callback", spotifyHandler.Callback)
		spotify.GET("/verify", spotifyHandler.Verify)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	return r
}
