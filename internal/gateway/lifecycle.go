package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// Connect establishes a gateway connection for a session, reusing a live one
// when possible. The credential is persisted before the connection attempt
// so a retried connect picks up the freshly stored value.
func (c *Client) Connect(ctx context.Context, session, credential string) error {
	if c.isConnected(ctx, session) {
		c.logger.Debug("reusing existing connection", zap.String("session", session))
		return nil
	}

	// Clear any stale rows before reconnecting
	c.cleanup(ctx, session)

	c.logger.Info("connecting to gateway", zap.String("session", session))

	if err := c.store.Set(ctx, tokenKey(session), credential, sessionTTL); err != nil {
		return fmt.Errorf("%w: failed to store credential: %v", ErrConnect, err)
	}

	gatewayURL, err := c.discoverGatewayURL(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	c.logger.Debug("using gateway", zap.String("url", gatewayURL))

	connectionID, err := c.transport.Connect(ctx, gatewayURL, nil, session)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if err := c.store.Set(ctx, connectionKey(session), connectionID, sessionTTL); err != nil {
		return fmt.Errorf("%w: failed to store connection handle: %v", ErrConnect, err)
	}

	c.metrics.IncReconnect()

	// Identify eagerly instead of waiting for the Hello frame
	return c.Identify(ctx, session)
}

// Identify authenticates a freshly opened connection and arms the recurring
// heartbeat. The reverse index is written before the identify frame goes
// out: once the service sees the frame, inbound traffic referencing this
// connection id must already be resolvable to a session.
func (c *Client) Identify(ctx context.Context, session string) error {
	connectionID, ok := c.connectionID(ctx, session)
	if !ok {
		return fmt.Errorf("%w: session %q", ErrNotConnected, session)
	}
	token, ok, err := c.store.Get(ctx, tokenKey(session))
	if err != nil || !ok || token == "" {
		return fmt.Errorf("%w: session %q", ErrNoCredential, session)
	}

	if err := c.store.Set(ctx, reverseKey(connectionID), session, sessionTTL); err != nil {
		return fmt.Errorf("failed to store reverse index: %w", err)
	}

	if err := c.send(ctx, connectionID, opIdentify, identifyPayload{
		Token:      token,
		Intents:    0,
		Properties: defaultIdentifyProperties,
	}); err != nil {
		return fmt.Errorf("failed to send identify frame: %w", err)
	}

	// A missed heartbeat schedule self-heals: the next publish reconnects
	if _, err := c.scheduler.ScheduleRecurring(ctx, c.heartbeatCron(), payloadHeartbeat, session); err != nil {
		c.logger.Warn("failed to schedule heartbeat",
			zap.String("session", session), zap.Error(err))
	}

	c.logger.Info("session identified", zap.String("session", session))
	return nil
}

// SendHeartbeat sends a heartbeat frame echoing the last observed sequence
// number, or null when none has been observed. It doubles as the liveness
// probe used by Connect.
func (c *Client) SendHeartbeat(ctx context.Context, session string) error {
	connectionID, ok := c.connectionID(ctx, session)
	if !ok {
		return fmt.Errorf("%w: session %q", ErrNotConnected, session)
	}

	if err := c.send(ctx, connectionID, opHeartbeat, c.sequence(ctx, session)); err != nil {
		c.metrics.IncHeartbeat("failed")
		return fmt.Errorf("%w: %v", ErrHeartbeatFailed, err)
	}
	c.metrics.IncHeartbeat("sent")
	return nil
}

// HandleHeartbeat is the recurring timer callback. A failed heartbeat tears
// the session down; the next publish naturally reconnects.
func (c *Client) HandleHeartbeat(ctx context.Context, session string) error {
	if err := c.SendHeartbeat(ctx, session); err != nil {
		c.logger.Warn("heartbeat failed, cleaning up connection",
			zap.String("session", session), zap.Error(err))
		c.cleanup(ctx, session)
		return err
	}
	return nil
}

// isConnected tests the stored connection by sending a heartbeat.
func (c *Client) isConnected(ctx context.Context, session string) bool {
	if err := c.SendHeartbeat(ctx, session); err != nil {
		c.logger.Debug("liveness probe failed",
			zap.String("session", session), zap.Error(err))
		return false
	}
	return true
}

// HandleMessage processes an inbound gateway frame. Unknown operations are
// ignored; only an unparseable frame fails the caller.
func (c *Client) HandleMessage(ctx context.Context, connectionID, message string) error {
	var f frame
	if err := json.Unmarshal([]byte(message), &f); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	session, haveSession := c.sessionForConnection(ctx, connectionID)

	if f.S != nil && haveSession {
		c.recordSequence(ctx, session, *f.S)
	}

	switch f.Op {
	case opHello:
		// Identify was already sent at connect time
	case opHeartbeatAck:
		// No action needed
	case opHeartbeat:
		// The service asked for an immediate heartbeat
		if haveSession {
			return c.SendHeartbeat(ctx, session)
		}
	default:
		c.logger.Debug("ignoring unknown gateway op",
			zap.Int("op", f.Op), zap.String("connectionID", connectionID))
	}
	return nil
}

// recordSequence stores a sequence number, keeping the cursor monotonically
// non-decreasing even if frames arrive out of order.
func (c *Client) recordSequence(ctx context.Context, session string, seq int64) {
	if cur := c.sequence(ctx, session); cur != nil && *cur > seq {
		return
	}
	if err := c.store.Set(ctx, sequenceKey(session), strconv.FormatInt(seq, 10), sessionTTL); err != nil {
		c.logger.Warn("failed to store sequence number",
			zap.String("session", session), zap.Error(err))
	}
}

// PublishActivity sends a presence update carrying one activity and re-arms
// the one-shot timer that clears it when the track completes.
func (c *Client) PublishActivity(ctx context.Context, session string, upd ActivityUpdate) error {
	connectionID, ok := c.connectionID(ctx, session)
	if !ok {
		return fmt.Errorf("%w: session %q", ErrNotConnected, session)
	}

	// A stale clear timer from the previous track must never fire mid-track
	if err := c.scheduler.Cancel(ctx, clearScheduleID(session)); err != nil {
		c.logger.Debug("no pending clear schedule to cancel",
			zap.String("session", session), zap.Error(err))
	}

	credential, _, err := c.store.Get(ctx, tokenKey(session))
	if err != nil {
		c.logger.Warn("failed to read credential for asset resolution",
			zap.String("session", session), zap.Error(err))
	}

	image, err := c.resolveAsset(ctx, upd.ArtworkURL, credential, false)
	if err != nil {
		return err
	}

	now := c.now().Unix()
	start := (now - int64(upd.Position)) * 1000
	end := start + int64(upd.Duration)*1000

	presence := newPresencePayload(activity{
		Name:          upd.Name,
		Type:          activityTypeListening,
		Details:       upd.Details,
		State:         upd.State,
		ApplicationID: c.clientID,
		Timestamps:    activityTimestamps{Start: start, End: end},
		Assets:        activityAssets{LargeImage: image, LargeText: upd.AlbumName},
	})
	if err := c.send(ctx, connectionID, opPresenceUpdate, presence); err != nil {
		return fmt.Errorf("failed to send presence update: %w", err)
	}

	// Clear shortly after the track is expected to finish
	remaining := upd.Duration - upd.Position + 5
	if _, err := c.scheduler.ScheduleOneTime(ctx, remaining, payloadClearActivity, clearScheduleID(session)); err != nil {
		c.logger.Warn("failed to schedule clear timer",
			zap.String("session", session), zap.Error(err))
	}

	c.logger.Info("presence published",
		zap.String("session", session),
		zap.String("details", upd.Details),
		zap.String("state", upd.State))
	return nil
}

// ActivityUpdate describes the "now playing" state to publish.
type ActivityUpdate struct {
	Name       string // application display name
	Details    string // track title
	State      string // artist
	AlbumName  string
	ArtworkURL string
	Duration   int32 // track length in seconds
	Position   int32 // current playback position in seconds
}

// HandleClearActivity is the one-shot timer callback that clears presence
// after a track completes, then tears the session down.
func (c *Client) HandleClearActivity(ctx context.Context, session string) error {
	c.logger.Info("clearing presence", zap.String("session", session))

	if connectionID, ok := c.connectionID(ctx, session); ok {
		if err := c.send(ctx, connectionID, opPresenceUpdate, newPresencePayload()); err != nil {
			return fmt.Errorf("failed to clear presence: %w", err)
		}
	}

	c.Disconnect(ctx, session)
	return nil
}

// Disconnect tears down the session: heartbeat and clear schedules, the
// transport connection, and every session row. It is safe to call when
// nothing is connected.
func (c *Client) Disconnect(ctx context.Context, session string) {
	c.cleanup(ctx, session)
}

// HandleConnectionClosed reacts to a transport close or error callback, which
// carries only a connection id. Without a reverse index entry the only thing
// left to do is drop the orphaned index row itself.
func (c *Client) HandleConnectionClosed(ctx context.Context, connectionID string) {
	session, ok := c.sessionForConnection(ctx, connectionID)
	if !ok {
		if err := c.store.Delete(ctx, reverseKey(connectionID)); err != nil {
			c.logger.Debug("failed to remove orphaned reverse index",
				zap.String("connectionID", connectionID), zap.Error(err))
		}
		return
	}

	c.logger.Info("connection closed, cleaning up session",
		zap.String("session", session), zap.String("connectionID", connectionID))
	c.cleanup(ctx, session)

	// cleanup derives the reverse key from the connection row, which may
	// already be gone. Drop it by connection id as well.
	if err := c.store.Delete(ctx, reverseKey(connectionID)); err != nil {
		c.logger.Debug("failed to remove reverse index",
			zap.String("connectionID", connectionID), zap.Error(err))
	}
}

// cleanup is the single idempotent teardown routine every exit path
// converges on: cancel timers, close the transport best-effort, delete rows.
// Each step logs and continues on failure; repeated execution is harmless.
func (c *Client) cleanup(ctx context.Context, session string) {
	if err := c.scheduler.Cancel(ctx, session); err != nil {
		c.logger.Debug("no heartbeat schedule to cancel",
			zap.String("session", session), zap.Error(err))
	}
	if err := c.scheduler.Cancel(ctx, clearScheduleID(session)); err != nil {
		c.logger.Debug("no clear schedule to cancel",
			zap.String("session", session), zap.Error(err))
	}

	if connectionID, ok := c.connectionID(ctx, session); ok {
		if err := c.transport.Close(ctx, connectionID, 1000, "presence session closed"); err != nil {
			c.logger.Debug("failed to close connection",
				zap.String("session", session), zap.Error(err))
		}
		if err := c.store.Delete(ctx, reverseKey(connectionID)); err != nil {
			c.logger.Warn("failed to remove reverse index",
				zap.String("connectionID", connectionID), zap.Error(err))
		}
	}

	if err := c.store.Delete(ctx, connectionKey(session)); err != nil {
		c.logger.Warn("failed to remove connection handle",
			zap.String("session", session), zap.Error(err))
	}
	if err := c.store.Delete(ctx, sequenceKey(session)); err != nil {
		c.logger.Warn("failed to remove sequence cursor",
			zap.String("session", session), zap.Error(err))
	}
}
