package manager

import (
	"context"

	"github.com/ibex-tudelft/econagent/internal/core/roles"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// LoggingDecider is a stand-in decision layer. It logs the derived views a
// real decider would consume (order book, chat history, compensation
// ranking) and takes no action. Useful for dry runs against a live server.
type LoggingDecider struct{}

func (LoggingDecider) Decide(_ context.Context, role roles.Role, st *game.State) ([]map[string]any, error) {
	telemetry.Infof("[%s] phase %d", role.Name, st.Phase())

	if book := st.Market.OrderBook(); book != "" {
		telemetry.Infof("order book:\n%s", book)
	}
	if transcript := st.History.Formatted(); transcript != "" {
		telemetry.Infof("chat:\n%s", transcript)
	}
	for _, req := range st.CompensationRequests() {
		if req.Compensation != nil {
			telemetry.Infof("compensation request: player %d wants %.0f", req.Number, *req.Compensation)
		} else {
			telemetry.Infof("compensation request: player %d (no amount)", req.Number)
		}
	}
	return nil, nil
}
