package recording

import (
	"fmt"

	"github.com/ibex-tudelft/econagent/internal/core/state/game"
	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// Replay applies a recorded event sequence to a state aggregate in order.
// Events that fail validation are logged and skipped so a single bad frame
// does not truncate the rebuilt state.
func Replay(evts []events.Event, st *game.State) error {
	var failed int
	for _, evt := range evts {
		if err := st.HandleEvent(evt); err != nil {
			failed++
			telemetry.Warnf("replay: event %q skipped: %v", evt.Type, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("replay: %d of %d events failed validation", failed, len(evts))
	}
	return nil
}
