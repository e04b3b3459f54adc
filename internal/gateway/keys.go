package gateway

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Session state rows live for a day; a connection that outlives its rows is
// recovered by the reconnect on the next publish.
const sessionTTL = 24 * time.Hour

// Resolved asset handles are kept for a few hours. The fallback asset is
// shared across all sessions and requested far more often, so it is kept
// much longer.
const (
	assetTTL         = 4 * time.Hour
	fallbackAssetTTL = 48 * time.Hour
)

// connectionKey addresses the transport connection id for a session.
func connectionKey(session string) string {
	return "connection." + session
}

// tokenKey addresses the stored credential for a session.
func tokenKey(session string) string {
	return "token." + session
}

// sequenceKey addresses the last observed frame sequence number.
func sequenceKey(session string) string {
	return "sequence." + session
}

// reverseKey maps a connection id back to its session name. It is the only
// way to recover the session inside callbacks that carry only a connection
// id.
func reverseKey(connectionID string) string {
	return "reverse." + connectionID
}

// assetKey content-addresses a resolved asset handle by its source URL.
func assetKey(sourceURL string) string {
	return fmt.Sprintf("asset.%x", xxhash.Sum64String(sourceURL))
}

// clearScheduleID names the one-shot clear-activity timer for a session.
func clearScheduleID(session string) string {
	return session + "-clear"
}
