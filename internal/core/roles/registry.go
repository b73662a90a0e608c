// Package roles maps server-assigned role codes to the closed set of
// behavior bundles an experiment defines. Role resolution happens once, at
// role-assignment time.
package roles

import (
	"fmt"
)

// Role describes one participant role: its wire code, display name, and the
// phases in which the role takes an action.
type Role struct {
	Code       int
	Name       string
	TaskPhases []int
}

// ActsIn reports whether the role takes an action in the given phase.
func (r Role) ActsIn(phase int) bool {
	for _, p := range r.TaskPhases {
		if p == phase {
			return true
		}
	}
	return false
}

// Registry maps role code -> role spec for one experiment.
type Registry struct {
	roles map[int]Role
}

func NewRegistry() *Registry {
	return &Registry{roles: make(map[int]Role)}
}

func (r *Registry) Register(role Role) {
	r.roles[role.Code] = role
}

// Resolve looks up a role by its wire code. Unknown codes are configuration
// errors, reported rather than panicking.
func (r *Registry) Resolve(code int) (Role, error) {
	role, ok := r.roles[code]
	if !ok {
		return Role{}, fmt.Errorf("no role registered for code %d", code)
	}
	return role, nil
}
