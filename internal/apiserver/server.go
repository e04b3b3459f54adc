// Package apiserver exposes the presence capability surface over HTTP to
// the playback tracker host.
package apiserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trackwave/presenced/internal/presence"
	"github.com/trackwave/presenced/pkg/metrics"
)

// presenceService is the slice of the presence service the API exposes.
type presenceService interface {
	IsAuthorized(ctx context.Context, username string) bool
	NowPlaying(ctx context.Context, req presence.NowPlayingRequest) error
	Scrobble(ctx context.Context, req presence.ScrobbleRequest) error
}

// Server is the inbound HTTP API.
type Server struct {
	logger  *zap.Logger
	svc     presenceService
	metrics *metrics.Metrics
}

// NewServer creates the API server over a presence service.
func NewServer(logger *zap.Logger, svc presenceService, m *metrics.Metrics) *Server {
	return &Server{
		logger:  logger.Named("api"),
		svc:     svc,
		metrics: m,
	}
}

// RegisterRoutes attaches the API routes to a gin router.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/authorized/:username", s.handleAuthorized)
		api.POST("/nowplaying", s.handleNowPlaying)
		api.POST("/scrobble", s.handleScrobble)
	}
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

func (s *Server) handleAuthorized(c *gin.Context) {
	username := c.Param("username")
	c.JSON(http.StatusOK, gin.H{
		"authorized": s.svc.IsAuthorized(c.Request.Context(), username),
	})
}

func (s *Server) handleNowPlaying(c *gin.Context) {
	var req presence.NowPlayingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := s.svc.NowPlaying(c.Request.Context(), req)
	switch {
	case err == nil:
		s.metrics.IncPublish("ok")
		c.Status(http.StatusNoContent)
	case errors.Is(err, presence.ErrNotAuthorized):
		s.metrics.IncPublish("not_authorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, presence.ErrRetryLater):
		s.metrics.IncPublish("retry_later")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.metrics.IncPublish("error")
		s.logger.Error("now-playing request failed",
			zap.String("username", req.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) handleScrobble(c *gin.Context) {
	var req presence.ScrobbleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.svc.Scrobble(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
