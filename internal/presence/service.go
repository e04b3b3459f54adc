// Package presence exposes the host-facing capability surface: authorization
// checks, now-playing publishing, and the timer and transport callbacks that
// drive the gateway session handlers.
package presence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/trackwave/presenced/internal/common/config"
	"github.com/trackwave/presenced/internal/gateway"
)

// activityName is the application display name shown with every activity.
const activityName = "Trackwave"

// clearScheduleSuffix distinguishes one-shot clear timers from the recurring
// heartbeat timers, which are keyed by the bare session name.
const clearScheduleSuffix = "-clear"

// gatewayClient is the slice of the gateway client the service drives.
type gatewayClient interface {
	Connect(ctx context.Context, session, credential string) error
	PublishActivity(ctx context.Context, session string, upd gateway.ActivityUpdate) error
	HandleHeartbeat(ctx context.Context, session string) error
	HandleClearActivity(ctx context.Context, session string) error
	HandleMessage(ctx context.Context, connectionID, message string) error
	HandleConnectionClosed(ctx context.Context, connectionID string)
}

// Service maps host requests and scheduler/transport callbacks onto gateway
// sessions. It holds no per-session state.
type Service struct {
	logger  *zap.Logger
	gateway gatewayClient
	users   map[string]string
}

// NewService creates the capability surface over a gateway client.
func NewService(logger *zap.Logger, gw gatewayClient, app config.AppConfig) *Service {
	return &Service{
		logger:  logger.Named("presence"),
		gateway: gw,
		users:   app.Users,
	}
}

// IsAuthorized reports whether a username has a configured credential.
func (s *Service) IsAuthorized(_ context.Context, username string) bool {
	_, ok := s.users[username]
	return ok
}

// Track describes the media item being played.
type Track struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	ArtworkURL string `json:"artworkUrl"`
	Duration   int32  `json:"duration"` // seconds
}

// NowPlayingRequest asks to publish a user's current track.
type NowPlayingRequest struct {
	Username string `json:"username"`
	Track    Track  `json:"track"`
	Position int32  `json:"position"` // seconds into the track
}

// NowPlaying publishes the track as the user's presence, connecting first
// when no live session exists. Failures are ErrNotAuthorized or
// ErrRetryLater.
func (s *Service) NowPlaying(ctx context.Context, req NowPlayingRequest) error {
	credential, ok := s.users[req.Username]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotAuthorized, req.Username)
	}

	if err := s.gateway.Connect(ctx, req.Username, credential); err != nil {
		return fmt.Errorf("%w: %v", ErrRetryLater, err)
	}

	if err := s.gateway.PublishActivity(ctx, req.Username, gateway.ActivityUpdate{
		Name:       activityName,
		Details:    req.Track.Title,
		State:      req.Track.Artist,
		AlbumName:  req.Track.Album,
		ArtworkURL: req.Track.ArtworkURL,
		Duration:   req.Track.Duration,
		Position:   req.Position,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrRetryLater, err)
	}
	return nil
}

// ScrobbleRequest reports a completed play.
type ScrobbleRequest struct {
	Username string `json:"username"`
	Track    Track  `json:"track"`
}

// Scrobble is accepted and discarded: presence only reflects what is playing
// right now, and the clear timer already handles track completion.
func (s *Service) Scrobble(_ context.Context, req ScrobbleRequest) error {
	s.logger.Debug("scrobble ignored",
		zap.String("username", req.Username), zap.String("title", req.Track.Title))
	return nil
}

// OnSchedule routes timer callbacks to the gateway handler the payload
// names. The schedule id carries the session: bare for heartbeats, with a
// "-clear" suffix for clear timers.
func (s *Service) OnSchedule(ctx context.Context, scheduleID, payload string, _ bool) {
	switch payload {
	case "heartbeat":
		if err := s.gateway.HandleHeartbeat(ctx, scheduleID); err != nil {
			s.logger.Warn("heartbeat callback failed",
				zap.String("session", scheduleID), zap.Error(err))
		}
	case "clear-activity":
		session := strings.TrimSuffix(scheduleID, clearScheduleSuffix)
		if err := s.gateway.HandleClearActivity(ctx, session); err != nil {
			s.logger.Warn("clear callback failed",
				zap.String("session", session), zap.Error(err))
		}
	default:
		s.logger.Warn("unknown schedule payload",
			zap.String("scheduleID", scheduleID), zap.String("payload", payload))
	}
}

// OnText forwards an inbound gateway frame.
func (s *Service) OnText(connectionID, message string) {
	if err := s.gateway.HandleMessage(context.Background(), connectionID, message); err != nil {
		s.logger.Warn("failed to handle gateway message",
			zap.String("connectionID", connectionID), zap.Error(err))
	}
}

// OnError tears the session down; the next publish reconnects.
func (s *Service) OnError(connectionID, errMsg string) {
	s.logger.Warn("gateway connection error",
		zap.String("connectionID", connectionID), zap.String("error", errMsg))
	s.gateway.HandleConnectionClosed(context.Background(), connectionID)
}

// OnClose tears the session down after a peer-initiated close.
func (s *Service) OnClose(connectionID string, code int, reason string) {
	s.logger.Info("gateway connection closed",
		zap.String("connectionID", connectionID),
		zap.Int("code", code), zap.String("reason", reason))
	s.gateway.HandleConnectionClosed(context.Background(), connectionID)
}
