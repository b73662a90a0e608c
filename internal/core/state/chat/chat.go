// Package chat implements the two chat records of a game session: the keyed
// transcript mirroring the server's message numbering, and the ordered
// display history used to build agent-facing context.
package chat

import (
	"fmt"
	"strings"

	"github.com/ibex-tudelft/econagent/internal/core/state/fields"
	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// Message is one chat message as delivered by the server, keyed by the
// server-assigned sequence number. An empty To list means broadcast.
type Message struct {
	Number int
	Sender int
	To     []int
	Text   string
	Time   int64
}

// Transcript is the canonical keyed record of chat messages. A re-sent
// sequence number overwrites the prior record; no history of the overwritten
// value is kept.
type Transcript struct {
	messages map[int]*Message
}

func NewTranscript() *Transcript {
	return &Transcript{
		messages: make(map[int]*Message),
	}
}

// ProcessEvent stores a message-received payload. Any other event type is a
// no-op for this reducer.
func (t *Transcript) ProcessEvent(eventType events.Type, data map[string]any) error {
	if eventType != events.TypeMessageReceived {
		telemetry.Debugf("chat: ignoring event %q", eventType)
		return nil
	}

	m := &Message{To: []int{}}
	var err error
	if v, ok := data["number"]; ok {
		if m.Number, err = asInt(v); err != nil {
			return fmt.Errorf("message number: %w", err)
		}
	}
	if v, ok := data["sender"]; ok {
		if m.Sender, err = asInt(v); err != nil {
			return fmt.Errorf("message sender: %w", err)
		}
	}
	if v, ok := data["to"]; ok {
		if m.To, err = asIntList(v); err != nil {
			return fmt.Errorf("message recipients: %w", err)
		}
	}
	if v, ok := data["text"]; ok {
		text, sok := v.(string)
		if !sok {
			return fmt.Errorf("message text: %w", &fields.CoercionError{Field: "text", Kind: fields.String, Value: v})
		}
		m.Text = text
	}
	if v, ok := data["time"]; ok {
		ts, err := asInt(v)
		if err != nil {
			return fmt.Errorf("message time: %w", err)
		}
		m.Time = int64(ts)
	}

	t.messages[m.Number] = m
	telemetry.Metrics.MessagesReceived.Inc()
	return nil
}

// Message returns the stored message for a sequence number, if any.
func (t *Transcript) Message(number int) (*Message, bool) {
	m, ok := t.messages[number]
	return m, ok
}

// Len is the number of distinct stored sequence numbers.
func (t *Transcript) Len() int { return len(t.messages) }

// Entry is a display-ready chat line for the agent-facing history.
type Entry struct {
	SenderID   int
	SenderName string
	Text       string
	Timestamp  string
	IsSystem   bool
}

// History is an append-only ordered chat log, independent of the keyed
// transcript. Entries are never mutated or removed.
type History struct {
	entries []Entry
}

func NewHistory() *History {
	return &History{}
}

// Append adds an entry to the end of the log. No deduplication.
func (h *History) Append(e Entry) {
	h.entries = append(h.entries, e)
}

// Entries returns the log in insertion order.
func (h *History) Entries() []Entry { return h.entries }

// Formatted renders the log as newline-joined "[sender] text" lines in
// insertion order, or the empty string when there are no entries.
func (h *History) Formatted() string {
	if len(h.entries) == 0 {
		return ""
	}
	lines := make([]string, len(h.entries))
	for i, e := range h.entries {
		lines[i] = fmt.Sprintf("[%s] %s", e.SenderName, e.Text)
	}
	return strings.Join(lines, "\n")
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, &fields.CoercionError{Kind: fields.Int, Value: v}
}

func asIntList(v any) ([]int, error) {
	switch list := v.(type) {
	case []int:
		return list, nil
	case []any:
		out := make([]int, 0, len(list))
		for _, item := range list {
			n, err := asInt(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, &fields.CoercionError{Kind: fields.AnyList, Value: v}
}
