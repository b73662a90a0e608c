package ibexws

import (
	"encoding/json"
	"time"

	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// frame is a raw message from the game server. The server wraps game events
// as {"type":"event","eventType":...,"data":{...}}; bare
// {"type":<event-type>,"data":{...}} frames are accepted as well.
type frame struct {
	Type      string         `json:"type"`
	EventType string         `json:"eventType"`
	GameID    int            `json:"gameId"`
	Data      map[string]any `json:"data"`
}

// ParseMessage converts a raw websocket frame into an event. Returns false
// for frames that carry no event (acks, empty types, unparseable input).
func ParseMessage(raw []byte) (events.Event, bool) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		telemetry.Metrics.ParseErrors.Inc()
		telemetry.Warnf("ibexws: parse error: %v", err)
		return events.Event{}, false
	}

	eventType := f.Type
	if eventType == "event" && f.EventType != "" {
		eventType = f.EventType
	}
	if eventType == "" || eventType == "event" {
		return events.Event{}, false
	}

	data := f.Data
	if data == nil {
		data = map[string]any{}
	}

	telemetry.Metrics.EventsReceived.Inc()
	return events.Event{
		Type:      events.Type(eventType),
		GameID:    f.GameID,
		Timestamp: time.Now(),
		Data:      data,
	}, true
}
