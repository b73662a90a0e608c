// Package process boots an experiment agent: shared wiring for config,
// telemetry, the event bus, the server connection, the session manager, and
// the session recorder. Experiment entry points supply only the pieces that
// differ between experiments.
package process

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ibex-tudelft/econagent/internal/adapters/inbound/ibexws"
	"github.com/ibex-tudelft/econagent/internal/config"
	"github.com/ibex-tudelft/econagent/internal/core/manager"
	"github.com/ibex-tudelft/econagent/internal/core/recording"
	"github.com/ibex-tudelft/econagent/internal/core/roles"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// ExperimentConfig captures the experiment-specific pieces that differ
// between the Harberger and voting entry points.
type ExperimentConfig struct {
	Key string // "harberger", "voting", used for logs

	// Built-in schema and roles, used when no experiment file is given.
	Schema game.Schema
	Roles  *roles.Registry

	// BuildDecider returns the decision layer, or nil for a passive
	// observer process.
	BuildDecider func(cfg *config.Config) manager.Decider
}

// Run boots an experiment agent process and blocks until SIGINT/SIGTERM.
func Run(epc ExperimentConfig) {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	telemetry.Infof("Starting %s agent", epc.Key)

	schema := epc.Schema
	registry := epc.Roles
	wsURL := cfg.ServerWSURL
	gameID := cfg.GameID

	// An experiment file overrides the built-in schema, roles, and server
	// endpoint.
	if cfg.ExperimentPath != "" {
		exp, err := config.LoadExperiment(cfg.ExperimentPath)
		if err != nil {
			telemetry.Errorf("experiment config: %v", err)
			os.Exit(1)
		}
		if schema, err = exp.Schema(); err != nil {
			telemetry.Errorf("experiment schema: %v", err)
			os.Exit(1)
		}
		if registry, err = exp.Roles(); err != nil {
			telemetry.Errorf("experiment roles: %v", err)
			os.Exit(1)
		}
		if exp.Runner.Hostname != "" {
			wsURL = exp.Runner.WSURL()
		}
		if exp.Runner.GameID != 0 {
			gameID = exp.Runner.GameID
		}
		telemetry.Infof("Loaded experiment %q from %s", exp.Name, cfg.ExperimentPath)
	}

	st, err := game.New(gameID, schema)
	if err != nil {
		telemetry.Errorf("build state: %v", err)
		os.Exit(1)
	}

	bus := events.NewBus()
	client := ibexws.NewClient(wsURL, gameID, cfg.RecoveryToken, cfg.SendRate, bus)

	var decider manager.Decider
	if epc.BuildDecider != nil {
		decider = epc.BuildDecider(cfg)
	}
	mgr := manager.New(gameID, st, registry, client, decider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus.SubscribeAll(func(evt events.Event) error {
		return mgr.HandleEvent(ctx, evt)
	})

	// ── Session recorder ──────────────────────────────────────
	recorder, err := recording.Open(cfg.RecordingPath)
	if err != nil {
		telemetry.Errorf("open recording store: %v", err)
		os.Exit(1)
	}
	defer recorder.Close()
	telemetry.Infof("Recording session to %s (run %s)", cfg.RecordingPath, recorder.RunID())

	bus.SubscribeAll(func(evt events.Event) error {
		return recorder.Record(evt)
	})

	// ── Server connection ─────────────────────────────────────
	if err := client.Connect(ctx); err != nil {
		telemetry.Errorf("connect to game server: %v", err)
		os.Exit(1)
	}

	// ── Shutdown ──────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down %s...", epc.Key)
	cancel()
	client.Close()

	telemetry.Infof("%s shutdown complete  events=%d  orders=%d  trades=%d  messages=%d  errors=%d",
		epc.Key,
		telemetry.Metrics.EventsProcessed.Value(),
		telemetry.Metrics.OrdersTracked.Value(),
		telemetry.Metrics.TradesRecorded.Value(),
		telemetry.Metrics.MessagesReceived.Value(),
		telemetry.Metrics.ValidationErrors.Value(),
	)
}
