package relay

import "encoding/json"

// EventType discriminates coordinator events.
type EventType string

const (
	EventReady          EventType = "ready"
	EventPlayerUpdate   EventType = "playerUpdate"
	EventStats          EventType = "stats"
	EventTrackStart     EventType = "TrackStartEvent"
	EventTrackEnd       EventType = "TrackEndEvent"
	EventTrackException EventType = "TrackExceptionEvent"
	EventTrackStuck     EventType = "TrackStuckEvent"
	EventSocketClosed   EventType = "WebSocketClosedEvent"

	// EventDisconnected is synthesized once when the coordinator gives
	// up reconnecting.
	EventDisconnected EventType = "disconnected"
)

// Event is one control-plane notification from the backing node.
// Raw carries the full inbound message for consumers that need the
// payload details.
type Event struct {
	Type EventType
	Node string
	Raw  json.RawMessage
}

// trackEventTypes maps the "event" op's type discriminator to the
// exported event type.
var trackEventTypes = map[string]EventType{
	"TrackStartEvent":      EventTrackStart,
	"TrackEndEvent":        EventTrackEnd,
	"TrackExceptionEvent":  EventTrackException,
	"TrackStuckEvent":      EventTrackStuck,
	"WebSocketClosedEvent": EventSocketClosed,
}
