// Package game composes the full session snapshot: three declared-field
// sections (meta, private, public) plus the embedded market and chat
// reducers, with a single event-dispatch entry point.
package game

import (
	"fmt"
	"math"
	"sort"

	"github.com/ibex-tudelft/econagent/internal/core/state/chat"
	"github.com/ibex-tudelft/econagent/internal/core/state/fields"
	"github.com/ibex-tudelft/econagent/internal/core/state/market"
	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// Well-known field names the aggregate itself reads. Experiment schemas may
// declare any additional fields they want.
const (
	FieldGameID           = "game_id"
	FieldPhase            = "phase"
	FieldPlayerName       = "player_name"
	FieldPlayerNumber     = "player_number"
	FieldPlayers          = "players"
	FieldWallet           = "wallet"
	FieldRawCompensation  = "raw_compensation"
	FieldConditions       = "conditions"
	FieldWinningCondition = "winning_condition"
)

// Schema declares the three field sections of a state aggregate.
type Schema struct {
	Meta    []fields.Spec
	Private []fields.Spec
	Public  []fields.Spec
}

// State is the aggregate snapshot for one game session. All mutation goes
// through HandleEvent; the surrounding system guarantees exclusive,
// arrival-ordered access (single-writer model).
type State struct {
	Meta    *fields.Section
	Private *fields.Section
	Public  *fields.Section

	Market  *market.Ledger
	Chat    *chat.Transcript
	History *chat.History
}

// marketEvents is the configured set of event types routed to the ledger.
var marketEvents = map[events.Type]bool{
	events.TypeAddOrder:          true,
	events.TypeUpdateOrder:       true,
	events.TypeDeleteOrder:       true,
	events.TypeContractFulfilled: true,
	events.TypeAssetMovement:     true,
}

// New builds a state aggregate from a schema. The game ID is not carried in
// any event payload, so it is written through the explicit path here; the
// schema should mark it exclude-from-mapping. Field names must be unique
// across the three sections.
func New(gameID int, schema Schema) (*State, error) {
	meta, err := fields.NewSection(schema.Meta)
	if err != nil {
		return nil, fmt.Errorf("meta section: %w", err)
	}
	private, err := fields.NewSection(schema.Private)
	if err != nil {
		return nil, fmt.Errorf("private section: %w", err)
	}
	public, err := fields.NewSection(schema.Public)
	if err != nil {
		return nil, fmt.Errorf("public section: %w", err)
	}

	seen := map[string]bool{}
	for _, sec := range []*fields.Section{meta, private, public} {
		for _, name := range sec.Names() {
			if seen[name] {
				return nil, fmt.Errorf("field %q declared in more than one section", name)
			}
			seen[name] = true
		}
	}

	s := &State{
		Meta:    meta,
		Private: private,
		Public:  public,
		Market:  market.NewLedger(),
		Chat:    chat.NewTranscript(),
		History: chat.NewHistory(),
	}

	if meta.Has(FieldGameID) {
		if err := meta.Set(FieldGameID, gameID); err != nil {
			return nil, fmt.Errorf("set game id: %w", err)
		}
	}
	return s, nil
}

// HandleEvent applies one (event-type, payload) pair to the aggregate.
//
// Market event types go to the ledger; asset-movement additionally patches
// the private wallet entry for the current winning condition after the
// ledger update. Chat messages go to the transcript. Everything else is
// routed generically over the three sections. A failure mid-apply leaves
// already-committed mutations in place; there is no rollback.
func (s *State) HandleEvent(evt events.Event) error {
	defer telemetry.Metrics.EventsProcessed.Inc()

	if marketEvents[evt.Type] {
		if err := s.Market.ProcessEvent(evt.Type, evt.Data); err != nil {
			return fmt.Errorf("event %q: %w", evt.Type, err)
		}
		if evt.Type == events.TypeAssetMovement {
			s.applyAssetMovement(evt.Data)
		}
		return nil
	}

	if evt.Type == events.TypeMessageReceived {
		if err := s.Chat.ProcessEvent(evt.Type, evt.Data); err != nil {
			return fmt.Errorf("event %q: %w", evt.Type, err)
		}
		return nil
	}

	for _, sec := range []*fields.Section{s.Meta, s.Private, s.Public} {
		if err := sec.Apply(string(evt.Type), evt.Data); err != nil {
			telemetry.Metrics.ValidationErrors.Inc()
			return fmt.Errorf("event %q: %w", evt.Type, err)
		}
	}
	return nil
}

// applyAssetMovement patches the wallet entry at the currently-resolved
// winning condition with the balance/shares carried by the event. Missing
// payload keys or an out-of-range winning condition are silent no-ops.
func (s *State) applyAssetMovement(data map[string]any) {
	wallet := s.Private.MapList(FieldWallet)
	wc := s.Public.Int(FieldWinningCondition)
	if wc < 0 || wc >= len(wallet) {
		telemetry.Debugf("game: asset-movement with no wallet entry for condition %d", wc)
		return
	}
	if v, ok := data["balance"]; ok {
		wallet[wc]["balance"] = v
	}
	if v, ok := data["shares"]; ok {
		wallet[wc]["shares"] = v
	}
}

func (s *State) GameID() int       { return s.Meta.Int(FieldGameID) }
func (s *State) Phase() int        { return s.Meta.Int(FieldPhase) }
func (s *State) PlayerName() string { return s.Meta.String(FieldPlayerName) }
func (s *State) PlayerNumber() int { return s.Meta.Int(FieldPlayerNumber) }

// CompensationRequest is one participant's request, ranked by amount.
// Compensation is nil when the raw entry carried no usable value.
type CompensationRequest struct {
	Number       int
	Compensation *float64
}

// CompensationRequests builds the ranked request list from the raw
// compensation-requests-received payload stored in the private section.
// Requests are sorted ascending by amount; requests without an amount sort
// last (treated as +Inf).
func (s *State) CompensationRequests() []CompensationRequest {
	raw := s.Private.Map(FieldRawCompensation)
	items, _ := raw["compensationRequests"].([]any)

	out := make([]CompensationRequest, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		req := CompensationRequest{}
		if n, ok := entry["number"].(float64); ok {
			req.Number = int(n)
		} else if n, ok := entry["number"].(int); ok {
			req.Number = n
		}
		// The amount is the second element of the nested array; shorter
		// arrays carry no usable value.
		if values, ok := entry["compensationRequests"].([]any); ok && len(values) > 1 {
			if amount, ok := asFloat(values[1]); ok {
				req.Compensation = &amount
			}
		}
		out = append(out, req)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return compensationKey(out[i]) < compensationKey(out[j])
	})
	return out
}

func compensationKey(r CompensationRequest) float64 {
	if r.Compensation == nil {
		return math.Inf(1)
	}
	return *r.Compensation
}

// WinningConditionDescription resolves the public conditions entry selected
// by the winning-condition index, or an empty map when no conditions are
// known or the index is out of range.
func (s *State) WinningConditionDescription() map[string]any {
	conditions := s.Public.MapList(FieldConditions)
	wc := s.Public.Int(FieldWinningCondition)
	if wc < 0 || wc >= len(conditions) {
		return map[string]any{}
	}
	return conditions[wc]
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
