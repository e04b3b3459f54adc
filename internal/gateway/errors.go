package gateway

import "errors"

var (
	// ErrConnect is returned when establishing a gateway connection fails.
	ErrConnect = errors.New("failed to connect to gateway")
	// ErrNotConnected is returned when an operation requires a connection
	// handle and none exists.
	ErrNotConnected = errors.New("not connected")
	// ErrNoCredential is returned when no credential is stored for a session.
	ErrNoCredential = errors.New("no credential found")
	// ErrHeartbeatFailed is returned when a heartbeat frame cannot be sent.
	ErrHeartbeatFailed = errors.New("heartbeat failed")
	// ErrMalformedFrame is returned when an inbound frame cannot be parsed.
	ErrMalformedFrame = errors.New("malformed gateway frame")
	// ErrAssetResolution is returned when artwork resolution fails even
	// after the fallback attempt.
	ErrAssetResolution = errors.New("asset resolution failed")
)
