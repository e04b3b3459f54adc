// Package gateway implements the presence-service session protocol: connect,
// identify, heartbeat, presence update, scheduled clear and disconnect.
//
// The package holds no session state in memory. Every handler is re-entrant
// and rebuilds its view of a session from the rows in the key-value store,
// so the host may invoke handlers in any order across process restarts.
package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/trackwave/presenced/internal/common/config"
	"github.com/trackwave/presenced/internal/kv"
	"github.com/trackwave/presenced/internal/scheduler"
	"github.com/trackwave/presenced/internal/transport"
	"github.com/trackwave/presenced/pkg/metrics"
)

// Client drives the gateway session protocol for any number of sessions.
type Client struct {
	logger    *zap.Logger
	store     kv.Store
	scheduler scheduler.Scheduler
	transport transport.Transport
	http      *http.Client
	metrics   *metrics.Metrics

	clientID string
	cfg      config.GatewayConfig

	now func() time.Time
}

// NewClient creates a gateway client. httpClient may be nil, in which case
// http.DefaultClient is used.
func NewClient(
	logger *zap.Logger,
	store kv.Store,
	sched scheduler.Scheduler,
	tr transport.Transport,
	httpClient *http.Client,
	clientID string,
	cfg config.GatewayConfig,
	m *metrics.Metrics,
) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		logger:    logger.Named("gateway"),
		store:     store,
		scheduler: sched,
		transport: tr,
		http:      httpClient,
		metrics:   m,
		clientID:  clientID,
		cfg:       cfg,
		now:       time.Now,
	}
}

// connectionID returns the stored transport connection id for a session.
func (c *Client) connectionID(ctx context.Context, session string) (string, bool) {
	id, ok, err := c.store.Get(ctx, connectionKey(session))
	if err != nil {
		c.logger.Warn("failed to read connection handle",
			zap.String("session", session), zap.Error(err))
		return "", false
	}
	return id, ok && id != ""
}

// sequence returns the last observed sequence number for a session, or nil
// when none has ever been observed.
func (c *Client) sequence(ctx context.Context, session string) *int64 {
	raw, ok, err := c.store.Get(ctx, sequenceKey(session))
	if err != nil || !ok {
		return nil
	}
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &seq
}

// sessionForConnection resolves a connection id back to its session name via
// the reverse index.
func (c *Client) sessionForConnection(ctx context.Context, connectionID string) (string, bool) {
	session, ok, err := c.store.Get(ctx, reverseKey(connectionID))
	if err != nil {
		c.logger.Warn("failed to read reverse index",
			zap.String("connectionID", connectionID), zap.Error(err))
		return "", false
	}
	return session, ok && session != ""
}

// send marshals and sends a gateway frame on the session's connection.
func (c *Client) send(ctx context.Context, connectionID string, op int, d any) error {
	text, err := encodeFrame(op, d)
	if err != nil {
		return err
	}
	return c.transport.SendText(ctx, connectionID, text)
}

// heartbeatCron renders the recurring heartbeat schedule expression.
func (c *Client) heartbeatCron() string {
	secs := int(c.cfg.HeartbeatInterval / time.Second)
	if secs <= 0 {
		secs = 41
	}
	return "@every " + strconv.Itoa(secs) + "s"
}
