package fields

import (
	"errors"
	"testing"
)

func testSection(t *testing.T) *Section {
	t.Helper()
	s, err := NewSection([]Spec{
		{Name: "game_id", Kind: Int, ExcludeFromMapping: true},
		{Name: "player_name", Kind: String, EventKey: "name"},
		{Name: "phase", Kind: Int},
		{Name: "signals", Kind: FloatList},
		{Name: "property", Kind: Map, ExcludeEvents: []string{"profit"}},
	})
	if err != nil {
		t.Fatalf("NewSection failed: %v", err)
	}
	return s
}

func TestApplyRoutesByEventKey(t *testing.T) {
	s := testSection(t)

	err := s.Apply("assign-name", map[string]any{"name": "Alice", "phase": 2.0})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if got := s.String("player_name"); got != "Alice" {
		t.Errorf("player_name = %q, want Alice", got)
	}
	if got := s.Int("phase"); got != 2 {
		t.Errorf("phase = %d, want 2", got)
	}
}

func TestApplyMissingKeysIsNoop(t *testing.T) {
	s := testSection(t)
	if err := s.Apply("some-event", map[string]any{"unrelated": 1.0}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := s.Int("phase"); got != 0 {
		t.Errorf("phase = %d, want 0 (untouched)", got)
	}
}

func TestApplySkipsExcludedFromMapping(t *testing.T) {
	s := testSection(t)

	// game_id appears in the payload but is excluded from generic routing.
	if err := s.Apply("some-event", map[string]any{"game_id": 42.0}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := s.Int("game_id"); got != 0 {
		t.Errorf("game_id = %d, want 0", got)
	}

	// The explicit path still works.
	if err := s.Set("game_id", 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := s.Int("game_id"); got != 42 {
		t.Errorf("game_id = %d, want 42", got)
	}
}

func TestApplyRespectsExcludeEvents(t *testing.T) {
	s := testSection(t)

	prop := map[string]any{"v1": 100.0}
	if err := s.Apply("property-assigned", map[string]any{"property": prop}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := s.Map("property"); got["v1"] != 100.0 {
		t.Fatalf("property not set: %v", got)
	}

	// The profit event carries a property key with a different shape and
	// must not clobber the stored record.
	if err := s.Apply("profit", map[string]any{"property": map[string]any{"other": 1.0}}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := s.Map("property"); got["v1"] != 100.0 {
		t.Errorf("property clobbered by excluded event: %v", got)
	}
}

func TestApplyCoercionFailure(t *testing.T) {
	s := testSection(t)

	err := s.Apply("phase-transition", map[string]any{"phase": "not a number"})
	if err == nil {
		t.Fatal("expected coercion error, got nil")
	}
	var ce *CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("error is %T, want *CoercionError", err)
	}
	if ce.Field != "phase" {
		t.Errorf("CoercionError.Field = %q, want phase", ce.Field)
	}
}

func TestApplyFloatListFromJSON(t *testing.T) {
	s := testSection(t)

	if err := s.Apply("signals", map[string]any{"signals": []any{1.5, 2.0, 3.0}}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	got := s.FloatList("signals")
	want := []float64{1.5, 2.0, 3.0}
	if len(got) != len(want) {
		t.Fatalf("signals = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("signals[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDefaults(t *testing.T) {
	s, err := NewSection([]Spec{
		{Name: "offers", Kind: AnyList, Default: []any{nil, nil}},
		{Name: "rate", Kind: Float},
	})
	if err != nil {
		t.Fatalf("NewSection failed: %v", err)
	}
	if got := s.AnyList("offers"); len(got) != 2 {
		t.Errorf("offers default = %v, want two entries", got)
	}
	if got := s.Float("rate"); got != 0 {
		t.Errorf("rate default = %v, want 0", got)
	}
}

func TestDuplicateFieldRejected(t *testing.T) {
	_, err := NewSection([]Spec{
		{Name: "phase", Kind: Int},
		{Name: "phase", Kind: Int},
	})
	if err == nil {
		t.Fatal("expected duplicate field error")
	}
}

func TestSetUnknownField(t *testing.T) {
	s := testSection(t)
	if err := s.Set("nonexistent", 1); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
