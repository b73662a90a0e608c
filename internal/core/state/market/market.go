// Package market implements the order and trade ledger for a game session.
// It is a reducer over server events: the state aggregate routes market event
// types here, and reads come through on-demand projections like OrderBook.
package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ibex-tudelft/econagent/internal/core/state/fields"
	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// Side of an order in the book.
const (
	SideBid = "bid"
	SideAsk = "ask"
)

// Order is a single live order. Orders are unique per ID; an add for an
// existing ID silently replaces it (idempotent upsert).
type Order struct {
	ID        int
	Sender    int
	Price     float64
	Quantity  float64
	Side      string
	Condition int
	Now       bool
}

func (o Order) String() string {
	return fmt.Sprintf("id=%d sender=%d price=%g quantity=%g type=%s condition=%d",
		o.ID, o.Sender, o.Price, o.Quantity, o.Side, o.Condition)
}

// Trade is one executed contract. Trades are append-only and never mutated.
type Trade struct {
	From      int
	To        int
	Price     float64
	Quantity  float64
	Condition int
	Median    *float64
}

// Ledger owns the live orders and the trade log for one game session.
// Not safe for concurrent use; the caller serializes event application.
type Ledger struct {
	orders map[int]*Order
	seq    []int // order IDs in arrival order; overwrites keep their slot
	trades []Trade
}

func NewLedger() *Ledger {
	return &Ledger{
		orders: make(map[int]*Order),
	}
}

// ProcessEvent applies one market event. Unknown event types are no-ops,
// never errors: the event surface is open-ended.
func (l *Ledger) ProcessEvent(eventType events.Type, data map[string]any) error {
	switch eventType {
	case events.TypeAddOrder:
		return l.addOrder(data)
	case events.TypeUpdateOrder:
		return l.updateOrder(data)
	case events.TypeDeleteOrder:
		return l.deleteOrder(data)
	case events.TypeContractFulfilled:
		return l.recordTrade(data)
	default:
		telemetry.Debugf("market: ignoring event %q", eventType)
		return nil
	}
}

func (l *Ledger) addOrder(data map[string]any) error {
	raw, ok := data["order"].(map[string]any)
	if !ok {
		telemetry.Debugf("market: add-order without order payload, skipping")
		return nil
	}
	id, ok := intKey(raw, "id")
	if !ok {
		telemetry.Debugf("market: add-order without id, skipping")
		return nil
	}

	o := &Order{ID: id}
	if err := patchOrder(o, raw); err != nil {
		return fmt.Errorf("add-order: %w", err)
	}

	if _, exists := l.orders[id]; !exists {
		l.seq = append(l.seq, id)
		telemetry.Metrics.LiveOrders.Inc()
	}
	l.orders[id] = o
	telemetry.Metrics.OrdersTracked.Inc()
	return nil
}

func (l *Ledger) updateOrder(data map[string]any) error {
	raw, ok := data["order"].(map[string]any)
	if !ok {
		return nil
	}
	id, ok := intKey(raw, "id")
	if !ok {
		return nil
	}
	o, exists := l.orders[id]
	if !exists {
		// Updates for unknown orders arrive after deletes on slow streams.
		telemetry.Debugf("market: update-order for unknown id %d, skipping", id)
		return nil
	}
	if err := patchOrder(o, raw); err != nil {
		return fmt.Errorf("update-order: %w", err)
	}
	return nil
}

func (l *Ledger) deleteOrder(data map[string]any) error {
	raw, ok := data["order"].(map[string]any)
	if !ok {
		return nil
	}
	id, ok := intKey(raw, "id")
	if !ok {
		return nil
	}
	if _, exists := l.orders[id]; !exists {
		telemetry.Debugf("market: delete-order for unknown id %d, skipping", id)
		return nil
	}
	delete(l.orders, id)
	for i, sid := range l.seq {
		if sid == id {
			l.seq = append(l.seq[:i], l.seq[i+1:]...)
			break
		}
	}
	telemetry.Metrics.LiveOrders.Dec()
	return nil
}

// recordTrade parses a trade from the top-level payload of a
// contract-fulfilled event. Quantity defaults to 1.0 when absent.
func (l *Ledger) recordTrade(data map[string]any) error {
	t := Trade{Quantity: 1.0}

	var err error
	if v, ok := data["from"]; ok {
		if t.From, err = asInt(v); err != nil {
			return fmt.Errorf("contract-fulfilled from: %w", err)
		}
	}
	if v, ok := data["to"]; ok {
		if t.To, err = asInt(v); err != nil {
			return fmt.Errorf("contract-fulfilled to: %w", err)
		}
	}
	if v, ok := data["price"]; ok {
		if t.Price, err = asFloat(v); err != nil {
			return fmt.Errorf("contract-fulfilled price: %w", err)
		}
	}
	if v, ok := data["quantity"]; ok {
		if t.Quantity, err = asFloat(v); err != nil {
			return fmt.Errorf("contract-fulfilled quantity: %w", err)
		}
	}
	if v, ok := data["condition"]; ok {
		if t.Condition, err = asInt(v); err != nil {
			return fmt.Errorf("contract-fulfilled condition: %w", err)
		}
	}
	if v, ok := data["median"]; ok && v != nil {
		m, err := asFloat(v)
		if err != nil {
			return fmt.Errorf("contract-fulfilled median: %w", err)
		}
		t.Median = &m
	}

	l.trades = append(l.trades, t)
	telemetry.Metrics.TradesRecorded.Inc()
	return nil
}

// patchOrder overwrites only the fields present in raw, leaving the rest
// untouched. Shared by add (full parse onto a zero order) and update.
func patchOrder(o *Order, raw map[string]any) error {
	var err error
	if v, ok := raw["sender"]; ok {
		if o.Sender, err = asInt(v); err != nil {
			return fmt.Errorf("sender: %w", err)
		}
	}
	if v, ok := raw["price"]; ok {
		if o.Price, err = asFloat(v); err != nil {
			return fmt.Errorf("price: %w", err)
		}
	}
	if v, ok := raw["quantity"]; ok {
		if o.Quantity, err = asFloat(v); err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
	}
	if v, ok := raw["type"]; ok {
		side, sok := v.(string)
		if !sok {
			return fmt.Errorf("type: %w", &fields.CoercionError{Field: "type", Kind: fields.String, Value: v})
		}
		o.Side = side
	}
	if v, ok := raw["condition"]; ok {
		if o.Condition, err = asInt(v); err != nil {
			return fmt.Errorf("condition: %w", err)
		}
	}
	if v, ok := raw["now"]; ok {
		now, bok := v.(bool)
		if !bok {
			return fmt.Errorf("now: %w", &fields.CoercionError{Field: "now", Kind: fields.Bool, Value: v})
		}
		o.Now = now
	}
	return nil
}

// Order returns the live order with the given ID, if any.
func (l *Ledger) Order(id int) (*Order, bool) {
	o, ok := l.orders[id]
	return o, ok
}

// Len is the number of live orders.
func (l *Ledger) Len() int { return len(l.orders) }

// Trades returns the trade log in arrival order.
func (l *Ledger) Trades() []Trade { return l.trades }

// Orders returns all live orders in arrival order.
func (l *Ledger) Orders() []*Order {
	out := make([]*Order, 0, len(l.seq))
	for _, id := range l.seq {
		out = append(out, l.orders[id])
	}
	return out
}

// OrdersFrom returns all live orders placed by the given participant, in
// ledger (arrival) order.
func (l *Ledger) OrdersFrom(participant int) []*Order {
	var out []*Order
	for _, id := range l.seq {
		if o := l.orders[id]; o.Sender == participant {
			out = append(out, o)
		}
	}
	return out
}

// OrderBook renders the live orders, one per line: asks sorted by price
// descending first, then bids sorted by price descending, ties broken by
// arrival order. Recomputed on every call so it can never go stale.
func (l *Ledger) OrderBook() string {
	snapshot := l.Orders()
	sort.SliceStable(snapshot, func(i, j int) bool {
		if snapshot[i].Side != snapshot[j].Side {
			return snapshot[i].Side == SideAsk
		}
		return snapshot[i].Price > snapshot[j].Price
	})

	lines := make([]string, len(snapshot))
	for i, o := range snapshot {
		lines[i] = o.String()
	}
	return strings.Join(lines, "\n")
}

func intKey(raw map[string]any, key string) (int, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	n, err := asInt(v)
	if err != nil {
		return 0, false
	}
	return n, true
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

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, &fields.CoercionError{Kind: fields.Float, Value: v}
}
