package gateway

import (
	"encoding/json"
	"fmt"
)

// Gateway operation codes. The set is closed; anything else is ignored.
const (
	opHeartbeat      = 1  // client<->server liveness
	opIdentify       = 2  // initial authentication
	opPresenceUpdate = 3  // activity update
	opHello          = 10 // server greeting after connect
	opHeartbeatAck   = 11 // server acknowledgement of a heartbeat
)

// Schedule payloads used to route timer callbacks.
const (
	payloadHeartbeat     = "heartbeat"
	payloadClearActivity = "clear-activity"
)

// frame is an inbound gateway message.
type frame struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
}

// envelope is the outbound wire format: {"op": int, "d": payload}.
type envelope struct {
	Op int `json:"op"`
	D  any `json:"d"`
}

// encodeFrame serializes an outbound gateway message.
func encodeFrame(op int, d any) (string, error) {
	b, err := json.Marshal(envelope{Op: op, D: d})
	if err != nil {
		return "", fmt.Errorf("failed to marshal gateway frame: %w", err)
	}
	return string(b), nil
}

// identifyPayload authenticates a freshly opened connection.
type identifyPayload struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// defaultIdentifyProperties is the static client descriptor sent with every
// identify frame.
var defaultIdentifyProperties = identifyProperties{
	OS:      "Windows 10",
	Browser: "Discord Client",
	Device:  "Discord Client",
}

// activity is a single presence entry.
type activity struct {
	Name          string             `json:"name"`
	Type          int                `json:"type"`
	Details       string             `json:"details"`
	State         string             `json:"state"`
	ApplicationID string             `json:"application_id"`
	Timestamps    activityTimestamps `json:"timestamps"`
	Assets        activityAssets     `json:"assets"`
}

// activityTypeListening renders as "Listening to ..." in the client UI.
const activityTypeListening = 2

type activityTimestamps struct {
	Start int64 `json:"start"` // unix millis
	End   int64 `json:"end"`   // unix millis
}

type activityAssets struct {
	LargeImage string `json:"large_image"`
	LargeText  string `json:"large_text"`
}

// presencePayload declares zero or one activities for a session. An empty
// activities list clears presence.
type presencePayload struct {
	Activities []activity `json:"activities"`
	Since      int64      `json:"since"`
	Status     string     `json:"status"`
	Afk        bool       `json:"afk"`
}

// newPresencePayload builds a presence update. Status "dnd" suppresses the
// default idle presence.
func newPresencePayload(activities ...activity) presencePayload {
	if activities == nil {
		activities = []activity{}
	}
	return presencePayload{
		Activities: activities,
		Since:      0,
		Status:     "dnd",
		Afk:        false,
	}
}
