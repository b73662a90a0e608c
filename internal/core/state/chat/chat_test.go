package chat

import (
	"testing"

	"github.com/ibex-tudelft/econagent/internal/events"
)

func TestTranscriptStoresMessage(t *testing.T) {
	tr := NewTranscript()

	payload := map[string]any{
		"number": 1.0,
		"sender": 100.0,
		"to":     []any{200.0, 300.0},
		"text":   "Hello world",
		"time":   1234567890.0,
	}
	if err := tr.ProcessEvent(events.TypeMessageReceived, payload); err != nil {
		t.Fatalf("ProcessEvent failed: %v", err)
	}

	m, ok := tr.Message(1)
	if !ok {
		t.Fatal("message 1 not found")
	}
	if m.Sender != 100 || m.Text != "Hello world" || m.Time != 1234567890 {
		t.Errorf("message fields mismatch: %+v", m)
	}
	if len(m.To) != 2 || m.To[0] != 200 || m.To[1] != 300 {
		t.Errorf("recipients = %v, want [200 300]", m.To)
	}
}

func TestTranscriptRecipientsDefaultToBroadcast(t *testing.T) {
	tr := NewTranscript()
	payload := map[string]any{"number": 1.0, "sender": 100.0, "text": "hi", "time": 1.0}
	if err := tr.ProcessEvent(events.TypeMessageReceived, payload); err != nil {
		t.Fatalf("ProcessEvent failed: %v", err)
	}
	m, _ := tr.Message(1)
	if m.To == nil || len(m.To) != 0 {
		t.Errorf("recipients = %v, want empty list", m.To)
	}
}

func TestTranscriptOverwritesSameNumber(t *testing.T) {
	tr := NewTranscript()
	tr.ProcessEvent(events.TypeMessageReceived, map[string]any{"number": 1.0, "sender": 100.0, "text": "A"})
	tr.ProcessEvent(events.TypeMessageReceived, map[string]any{"number": 1.0, "sender": 200.0, "text": "B"})

	if tr.Len() != 1 {
		t.Fatalf("transcript size = %d, want 1", tr.Len())
	}
	m, _ := tr.Message(1)
	if m.Sender != 200 || m.Text != "B" {
		t.Errorf("overwrite failed: %+v", m)
	}
}

func TestTranscriptMultipleMessages(t *testing.T) {
	tr := NewTranscript()
	for i := 1; i <= 3; i++ {
		tr.ProcessEvent(events.TypeMessageReceived, map[string]any{
			"number": float64(i), "sender": float64(100 * i), "text": "msg", "time": float64(i * 1000),
		})
	}
	if tr.Len() != 3 {
		t.Errorf("transcript size = %d, want 3", tr.Len())
	}
}

func TestTranscriptIgnoresOtherEvents(t *testing.T) {
	tr := NewTranscript()
	if err := tr.ProcessEvent("other-event", map[string]any{"data": "x"}); err != nil {
		t.Fatalf("other event errored: %v", err)
	}
	if tr.Len() != 0 {
		t.Error("non-message event mutated transcript")
	}
}

func TestHistoryFormatted(t *testing.T) {
	h := NewHistory()
	h.Append(Entry{SenderID: 100, SenderName: "Alice", Text: "Hello everyone!", Timestamp: "2024-01-15 10:30:00"})
	h.Append(Entry{SenderID: 200, SenderName: "Bob", Text: "Hi Alice!", Timestamp: "2024-01-15 10:31:00"})
	h.Append(Entry{SenderName: "System", Text: "Round 1 started", Timestamp: "2024-01-15 10:32:00", IsSystem: true})

	want := "[Alice] Hello everyone!\n[Bob] Hi Alice!\n[System] Round 1 started"
	if got := h.Formatted(); got != want {
		t.Errorf("Formatted() = %q, want %q", got, want)
	}
}

func TestHistoryFormattedEmpty(t *testing.T) {
	h := NewHistory()
	if got := h.Formatted(); got != "" {
		t.Errorf("Formatted() = %q, want \"\"", got)
	}
}

func TestHistoryAppendKeepsOrder(t *testing.T) {
	h := NewHistory()
	h.Append(Entry{SenderName: "A", Text: "1"})
	h.Append(Entry{SenderName: "A", Text: "1"}) // no deduplication
	h.Append(Entry{SenderName: "B", Text: "2"})

	entries := h.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Text != "1" || entries[2].Text != "2" {
		t.Errorf("insertion order lost: %+v", entries)
	}
}
