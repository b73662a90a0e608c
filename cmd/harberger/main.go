package main

import (
	"github.com/ibex-tudelft/econagent/internal/config"
	"github.com/ibex-tudelft/econagent/internal/core/manager"
	"github.com/ibex-tudelft/econagent/internal/core/state/game/harberger"
	"github.com/ibex-tudelft/econagent/internal/process"
)

func main() {
	process.Run(process.ExperimentConfig{
		Key:    "harberger",
		Schema: harberger.Schema(),
		Roles:  harberger.Roles(),
		BuildDecider: func(_ *config.Config) manager.Decider {
			return manager.LoggingDecider{}
		},
	})
}
