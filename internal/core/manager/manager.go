// Package manager drives one agent through a game session: it applies every
// server event to the state aggregate, answers the server's handshake
// events, and asks the decision layer to act when the assigned role has a
// task in the current phase.
package manager

import (
	"context"
	"fmt"

	"github.com/ibex-tudelft/econagent/internal/core/roles"
	"github.com/ibex-tudelft/econagent/internal/core/state/chat"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// Sender delivers outbound messages to the game server. Implemented by the
// websocket client; payloads are JSON-encoded by the implementation.
type Sender interface {
	Send(ctx context.Context, payload any) error
}

// Decider is the decision layer. It reads the state snapshot (order book,
// chat history, compensation ranking) and returns the messages to send.
// What the decider actually computes (prompts, models, heuristics) is
// outside this package.
type Decider interface {
	Decide(ctx context.Context, role roles.Role, st *game.State) ([]map[string]any, error)
}

// Handler is an extra per-event-type hook, registered at construction time.
type Handler func(ctx context.Context, evt events.Event) error

// Manager owns the state aggregate for one session and serializes all event
// application. It must be fed events one at a time in arrival order; the
// websocket read loop guarantees that.
type Manager struct {
	gameID   int
	state    *game.State
	registry *roles.Registry
	sender   Sender
	decider  Decider

	role     *roles.Role
	handlers map[events.Type][]Handler
}

func New(gameID int, st *game.State, registry *roles.Registry, sender Sender, decider Decider) *Manager {
	m := &Manager{
		gameID:   gameID,
		state:    st,
		registry: registry,
		sender:   sender,
		decider:  decider,
		handlers: make(map[events.Type][]Handler),
	}

	// The server requires the readiness ack after assigning a name, and
	// the agent role can only be resolved once the server assigns it.
	m.RegisterHandler(events.TypeAssignName, m.handleNameAssignment)
	m.RegisterHandler(events.TypeAssignRole, m.handleRoleAssignment)
	return m
}

// RegisterHandler adds an extra hook for an event type. Hooks run before the
// event is applied to the state aggregate.
func (m *Manager) RegisterHandler(t events.Type, h Handler) {
	m.handlers[t] = append(m.handlers[t], h)
}

// State exposes the aggregate for read-only consumers (display, tests).
func (m *Manager) State() *game.State { return m.state }

// Role returns the resolved role, or nil before role assignment.
func (m *Manager) Role() *roles.Role { return m.role }

// HandleEvent applies one server event. Hooks run first, then the state
// aggregate, then the phase-task check.
func (m *Manager) HandleEvent(ctx context.Context, evt events.Event) error {
	for _, h := range m.handlers[evt.Type] {
		if err := h(ctx, evt); err != nil {
			return err
		}
	}

	if err := m.state.HandleEvent(evt); err != nil {
		telemetry.Errorf("manager: event %q failed: %v  payload=%v", evt.Type, err, evt.Data)
		return err
	}

	switch evt.Type {
	case events.TypeMessageReceived:
		m.appendChatHistory(evt)
	case events.TypePhaseTransition:
		m.state.History.Append(chat.Entry{
			SenderName: "System",
			Text:       fmt.Sprintf("Phase %d started", m.state.Phase()),
			IsSystem:   true,
		})
		return m.maybeAct(ctx)
	}
	return nil
}

func (m *Manager) handleNameAssignment(ctx context.Context, _ events.Event) error {
	ready := map[string]any{
		"gameId": m.gameID,
		"type":   "player-is-ready",
	}
	if err := m.sender.Send(ctx, ready); err != nil {
		return fmt.Errorf("send ready ack: %w", err)
	}
	telemetry.Infof("manager: name assigned, sent player-is-ready (game %d)", m.gameID)
	return nil
}

func (m *Manager) handleRoleAssignment(_ context.Context, evt events.Event) error {
	code, ok := evt.Data["role"].(float64)
	if !ok {
		if n, iok := evt.Data["role"].(int); iok {
			code, ok = float64(n), true
		}
	}
	if !ok {
		return fmt.Errorf("assign-role without numeric role: %v", evt.Data)
	}

	role, err := m.registry.Resolve(int(code))
	if err != nil {
		return fmt.Errorf("assign-role: %w", err)
	}
	m.role = &role
	telemetry.Infof("manager: role assigned: %s (code %d)", role.Name, role.Code)
	return nil
}

// maybeAct invokes the decision layer when the assigned role has a task in
// the phase just entered. Decider output is stamped with the game ID and
// sent as-is.
func (m *Manager) maybeAct(ctx context.Context) error {
	if m.role == nil || m.decider == nil {
		return nil
	}
	phase := m.state.Phase()
	if !m.role.ActsIn(phase) {
		telemetry.Debugf("manager: %s has no task in phase %d", m.role.Name, phase)
		return nil
	}

	actions, err := m.decider.Decide(ctx, *m.role, m.state)
	if err != nil {
		return fmt.Errorf("decide phase %d: %w", phase, err)
	}
	for _, action := range actions {
		if _, ok := action["gameId"]; !ok {
			action["gameId"] = m.gameID
		}
		if err := m.sender.Send(ctx, action); err != nil {
			return fmt.Errorf("send action: %w", err)
		}
		telemetry.Metrics.ActionsSent.Inc()
	}
	return nil
}

// appendChatHistory mirrors an incoming chat message into the display
// history, resolving the sender's name from the player roster.
func (m *Manager) appendChatHistory(evt events.Event) {
	sender := 0
	if n, ok := evt.Data["sender"].(float64); ok {
		sender = int(n)
	} else if n, ok := evt.Data["sender"].(int); ok {
		sender = n
	}
	text, _ := evt.Data["text"].(string)

	m.state.History.Append(chat.Entry{
		SenderID:   sender,
		SenderName: m.playerName(sender),
		Text:       text,
	})
}

func (m *Manager) playerName(number int) string {
	for _, p := range m.state.Meta.MapList(game.FieldPlayers) {
		n, ok := p["number"].(float64)
		if !ok {
			if i, iok := p["number"].(int); iok {
				n, ok = float64(i), true
			}
		}
		if ok && int(n) == number {
			if name, ok := p["name"].(string); ok && name != "" {
				return name
			}
		}
	}
	return fmt.Sprintf("Player %d", number)
}
