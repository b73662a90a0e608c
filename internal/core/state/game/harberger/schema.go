// Package harberger declares the built-in state schema and roles for the
// Harberger land-tax experiment. Experiments can also declare schemas in a
// YAML file; this package is the code-level equivalent for the standard
// setup.
package harberger

import (
	"github.com/ibex-tudelft/econagent/internal/core/roles"
	"github.com/ibex-tudelft/econagent/internal/core/state/fields"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
)

// Role codes assigned by the server.
const (
	RoleSpeculator = 1
	RoleDeveloper  = 2
	RoleOwner      = 3
)

// Schema declares the three state sections for the Harberger experiment.
func Schema() game.Schema {
	return game.Schema{
		Meta: []fields.Spec{
			{Name: game.FieldGameID, Kind: fields.Int, ExcludeFromMapping: true},
			{Name: game.FieldPlayerName, Kind: fields.String, EventKey: "name"},
			{Name: game.FieldPlayerNumber, Kind: fields.Int, EventKey: "number"},
			{Name: game.FieldPlayers, Kind: fields.MapList},
			{Name: game.FieldPhase, Kind: fields.Int},
		},
		Private: []fields.Spec{
			{Name: game.FieldWallet, Kind: fields.MapList},
			{Name: "value_signals", Kind: fields.FloatList, EventKey: "signals"},
			{Name: "declarations", Kind: fields.MapList},
			// The profit event carries a property key with a different
			// shape, so it must not clobber the owned property record.
			{Name: "property", Kind: fields.Map, ExcludeEvents: []string{"profit"}},
			{Name: game.FieldRawCompensation, Kind: fields.Map, EventKey: "compensation-requests-received"},
		},
		Public: []fields.Spec{
			{Name: "tax_rate", Kind: fields.Float, EventKey: "taxRate"},
			{Name: "initial_tax_rate", Kind: fields.Float, EventKey: "initialTaxRate"},
			{Name: "final_tax_rate", Kind: fields.Float, EventKey: "finalTaxRate"},
			{Name: "boundaries", Kind: fields.Map},
			{Name: game.FieldConditions, Kind: fields.MapList},
			{Name: "public_signal", Kind: fields.FloatList, EventKey: "publicSignal"},
			{Name: "compensation_offers", Kind: fields.AnyList, EventKey: "compensationOffers",
				Default: []any{nil, nil}},
			{Name: game.FieldWinningCondition, Kind: fields.Int, EventKey: "winningCondition"},
		},
	}
}

// Roles returns the Harberger role registry.
func Roles() *roles.Registry {
	r := roles.NewRegistry()
	r.Register(roles.Role{Code: RoleSpeculator, Name: "Speculator", TaskPhases: []int{3, 6, 8}})
	r.Register(roles.Role{Code: RoleDeveloper, Name: "Developer", TaskPhases: []int{2, 4, 5, 6}})
	r.Register(roles.Role{Code: RoleOwner, Name: "Owner", TaskPhases: []int{2, 3, 5, 6}})
	return r
}
