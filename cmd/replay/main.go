// Command replay rebuilds a state aggregate from a recorded session and
// prints the derived views, for post-hoc inspection of a run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ibex-tudelft/econagent/internal/core/recording"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
	"github.com/ibex-tudelft/econagent/internal/core/state/game/harberger"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

func main() {
	dbPath := flag.String("db", "data/sessions.db", "recording database")
	runID := flag.String("run", "", "run ID to replay (default: latest)")
	flag.Parse()

	telemetry.Init(telemetry.ParseLogLevel(os.Getenv("LOG_LEVEL")))

	store, err := recording.Open(*dbPath)
	if err != nil {
		telemetry.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	run := *runID
	if run == "" {
		runs, err := store.Runs(ctx)
		if err != nil {
			telemetry.Errorf("list runs: %v", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			telemetry.Errorf("no recorded runs in %s", *dbPath)
			os.Exit(1)
		}
		run = runs[len(runs)-1]
	}

	evts, err := store.Events(ctx, run)
	if err != nil {
		telemetry.Errorf("load events: %v", err)
		os.Exit(1)
	}

	gameID := 0
	if len(evts) > 0 {
		gameID = evts[0].GameID
	}
	st, err := game.New(gameID, harberger.Schema())
	if err != nil {
		telemetry.Errorf("build state: %v", err)
		os.Exit(1)
	}

	if err := recording.Replay(evts, st); err != nil {
		telemetry.Warnf("%v", err)
	}

	fmt.Printf("run %s: %d events, game %d, phase %d\n", run, len(evts), st.GameID(), st.Phase())
	fmt.Printf("live orders: %d  trades: %d  chat messages: %d\n",
		st.Market.Len(), len(st.Market.Trades()), st.Chat.Len())

	if book := st.Market.OrderBook(); book != "" {
		fmt.Printf("\norder book:\n%s\n", book)
	}
	if transcript := st.History.Formatted(); transcript != "" {
		fmt.Printf("\nchat:\n%s\n", transcript)
	}
}
