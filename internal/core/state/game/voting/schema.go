// Package voting declares the built-in state schema and roles for the
// voting variant of the land-assembly experiment. It shares the market and
// chat reducers with the Harberger setup but runs without the speculator
// role.
package voting

import (
	"github.com/ibex-tudelft/econagent/internal/core/roles"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
	"github.com/ibex-tudelft/econagent/internal/core/state/game/harberger"
)

// Schema declares the three state sections for the voting experiment.
// The field layout matches the Harberger one; the experiments differ in
// roles and phase structure, not in state shape.
func Schema() game.Schema {
	return harberger.Schema()
}

// Roles returns the voting role registry. The voting game has no
// speculator; only developers and owners participate.
func Roles() *roles.Registry {
	r := roles.NewRegistry()
	r.Register(roles.Role{Code: harberger.RoleDeveloper, Name: "Developer", TaskPhases: []int{2, 4, 5, 6}})
	r.Register(roles.Role{Code: harberger.RoleOwner, Name: "Owner", TaskPhases: []int{2, 3, 5, 6}})
	return r
}
