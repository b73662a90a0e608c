package main

import (
	"github.com/ibex-tudelft/econagent/internal/config"
	"github.com/ibex-tudelft/econagent/internal/core/manager"
	"github.com/ibex-tudelft/econagent/internal/core/state/game/voting"
	"github.com/ibex-tudelft/econagent/internal/process"
)

func main() {
	process.Run(process.ExperimentConfig{
		Key:    "voting",
		Schema: voting.Schema(),
		Roles:  voting.Roles(),
		BuildDecider: func(_ *config.Config) manager.Decider {
			return manager.LoggingDecider{}
		},
	})
}
