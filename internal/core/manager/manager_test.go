package manager

import (
	"context"
	"testing"

	"github.com/ibex-tudelft/econagent/internal/core/roles"
	"github.com/ibex-tudelft/econagent/internal/core/state/fields"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
	"github.com/ibex-tudelft/econagent/internal/events"
)

type fakeSender struct {
	sent []map[string]any
}

func (f *fakeSender) Send(_ context.Context, payload any) error {
	f.sent = append(f.sent, payload.(map[string]any))
	return nil
}

type fakeDecider struct {
	calls   int
	actions []map[string]any
}

func (f *fakeDecider) Decide(_ context.Context, _ roles.Role, _ *game.State) ([]map[string]any, error) {
	f.calls++
	return f.actions, nil
}

func testState(t *testing.T) *game.State {
	t.Helper()
	st, err := game.New(7, game.Schema{
		Meta: []fields.Spec{
			{Name: game.FieldGameID, Kind: fields.Int, ExcludeFromMapping: true},
			{Name: game.FieldPlayerName, Kind: fields.String, EventKey: "name"},
			{Name: game.FieldPlayers, Kind: fields.MapList},
			{Name: game.FieldPhase, Kind: fields.Int},
		},
	})
	if err != nil {
		t.Fatalf("game.New failed: %v", err)
	}
	return st
}

func testRegistry() *roles.Registry {
	r := roles.NewRegistry()
	r.Register(roles.Role{Code: 3, Name: "Owner", TaskPhases: []int{2, 3}})
	return r
}

func TestNameAssignmentSendsReadyAck(t *testing.T) {
	sender := &fakeSender{}
	m := New(7, testState(t), testRegistry(), sender, nil)

	err := m.HandleEvent(context.Background(), events.Event{
		Type: events.TypeAssignName,
		Data: map[string]any{"name": "Agent 1"},
	})
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	ready := sender.sent[0]
	if ready["type"] != "player-is-ready" || ready["gameId"] != 7 {
		t.Errorf("ready ack = %v", ready)
	}

	// The name event still routes onto the state fields.
	if m.State().PlayerName() != "Agent 1" {
		t.Errorf("player name = %q, want Agent 1", m.State().PlayerName())
	}
}

func TestRoleAssignmentResolvesRole(t *testing.T) {
	m := New(7, testState(t), testRegistry(), &fakeSender{}, nil)

	err := m.HandleEvent(context.Background(), events.Event{
		Type: events.TypeAssignRole,
		Data: map[string]any{"role": 3.0},
	})
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if m.Role() == nil || m.Role().Name != "Owner" {
		t.Errorf("role = %+v, want Owner", m.Role())
	}
}

func TestInvalidRoleReported(t *testing.T) {
	m := New(7, testState(t), testRegistry(), &fakeSender{}, nil)

	err := m.HandleEvent(context.Background(), events.Event{
		Type: events.TypeAssignRole,
		Data: map[string]any{"role": 9.0},
	})
	if err == nil {
		t.Fatal("expected configuration error for invalid role")
	}
	if m.Role() != nil {
		t.Errorf("role resolved despite invalid code: %+v", m.Role())
	}
}

func TestPhaseTransitionTriggersTaskPhases(t *testing.T) {
	sender := &fakeSender{}
	decider := &fakeDecider{actions: []map[string]any{{"type": "post-order"}}}
	m := New(7, testState(t), testRegistry(), sender, decider)

	ctx := context.Background()
	if err := m.HandleEvent(ctx, events.Event{Type: events.TypeAssignRole, Data: map[string]any{"role": 3.0}}); err != nil {
		t.Fatalf("assign-role failed: %v", err)
	}

	// Phase 1 is not a task phase for Owner.
	if err := m.HandleEvent(ctx, events.Event{Type: events.TypePhaseTransition, Data: map[string]any{"phase": 1.0}}); err != nil {
		t.Fatalf("phase 1 failed: %v", err)
	}
	if decider.calls != 0 {
		t.Errorf("decider called in non-task phase")
	}

	// Phase 2 is a task phase; the action is stamped with the game ID.
	if err := m.HandleEvent(ctx, events.Event{Type: events.TypePhaseTransition, Data: map[string]any{"phase": 2.0}}); err != nil {
		t.Fatalf("phase 2 failed: %v", err)
	}
	if decider.calls != 1 {
		t.Fatalf("decider calls = %d, want 1", decider.calls)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d actions, want 1", len(sender.sent))
	}
	action := sender.sent[0]
	if action["type"] != "post-order" || action["gameId"] != 7 {
		t.Errorf("action = %v", action)
	}
}

func TestPhaseTransitionWithoutRoleIsQuiet(t *testing.T) {
	decider := &fakeDecider{}
	m := New(7, testState(t), testRegistry(), &fakeSender{}, decider)

	err := m.HandleEvent(context.Background(), events.Event{
		Type: events.TypePhaseTransition,
		Data: map[string]any{"phase": 2.0},
	})
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if decider.calls != 0 {
		t.Error("decider called before role assignment")
	}
}

func TestChatMessageAppendsHistoryWithResolvedName(t *testing.T) {
	m := New(7, testState(t), testRegistry(), &fakeSender{}, nil)
	ctx := context.Background()

	if err := m.HandleEvent(ctx, events.Event{Type: "players-known", Data: map[string]any{
		"players": []any{
			map[string]any{"number": 100.0, "name": "Alice"},
		},
	}}); err != nil {
		t.Fatalf("players event failed: %v", err)
	}

	if err := m.HandleEvent(ctx, events.Event{Type: events.TypeMessageReceived, Data: map[string]any{
		"number": 1.0, "sender": 100.0, "text": "Hello everyone!",
	}}); err != nil {
		t.Fatalf("message event failed: %v", err)
	}
	if err := m.HandleEvent(ctx, events.Event{Type: events.TypeMessageReceived, Data: map[string]any{
		"number": 2.0, "sender": 200.0, "text": "hi",
	}}); err != nil {
		t.Fatalf("message event failed: %v", err)
	}

	entries := m.State().History.Entries()
	if len(entries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(entries))
	}
	if entries[0].SenderName != "Alice" {
		t.Errorf("entry 0 name = %q, want Alice", entries[0].SenderName)
	}
	if entries[1].SenderName != "Player 200" {
		t.Errorf("entry 1 name = %q, want Player 200 fallback", entries[1].SenderName)
	}
}
