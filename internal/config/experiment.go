package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ibex-tudelft/econagent/internal/core/roles"
	"github.com/ibex-tudelft/econagent/internal/core/state/fields"
	"github.com/ibex-tudelft/econagent/internal/core/state/game"
)

// Experiment is the declarative description of one experiment run: the
// roles, the state field layout, and the server endpoint.
type Experiment struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	AgentRoles  []AgentRole `yaml:"agent_roles"`
	State       StateConfig `yaml:"state"`
	Runner      Runner      `yaml:"runner"`
}

type AgentRole struct {
	RoleID     int    `yaml:"role_id"`
	Name       string `yaml:"name"`
	TaskPhases []int  `yaml:"task_phases"`
}

type StateConfig struct {
	MetaInformation    []FieldDescriptor `yaml:"meta_information"`
	PrivateInformation []FieldDescriptor `yaml:"private_information"`
	PublicInformation  []FieldDescriptor `yaml:"public_information"`
}

// FieldDescriptor is one declared state field as written in the experiment
// file. Type names follow the experiment config convention ("int", "float",
// "str", "bool", "list", "dict", "float_list", "map_list"); the embedded
// reducer types "MarketState" and "ChatState" are accepted and skipped,
// since every aggregate carries the market and chat reducers built in.
type FieldDescriptor struct {
	Name               string   `yaml:"name"`
	Type               string   `yaml:"type"`
	Default            any      `yaml:"default"`
	DefaultFactory     string   `yaml:"default_factory"`
	EventKey           string   `yaml:"event_key"`
	ExcludeFromMapping bool     `yaml:"exclude_from_mapping"`
	ExcludeEvents      []string `yaml:"exclude_events"`
}

type Runner struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Path     string `yaml:"path"`
	GameID   int    `yaml:"game_id"`
}

// WSURL assembles the websocket endpoint from the runner block.
func (r Runner) WSURL() string {
	path := r.Path
	if path == "" {
		path = "wss"
	}
	return fmt.Sprintf("ws://%s:%d/%s", r.Hostname, r.Port, path)
}

// LoadExperiment reads and parses an experiment YAML file.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment config: %w", err)
	}

	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parse experiment config: %w", err)
	}
	return &exp, nil
}

// Schema converts the declared field lists into the runtime schema the
// field router interprets.
func (e *Experiment) Schema() (game.Schema, error) {
	meta, err := specs(e.State.MetaInformation)
	if err != nil {
		return game.Schema{}, fmt.Errorf("meta_information: %w", err)
	}
	private, err := specs(e.State.PrivateInformation)
	if err != nil {
		return game.Schema{}, fmt.Errorf("private_information: %w", err)
	}
	public, err := specs(e.State.PublicInformation)
	if err != nil {
		return game.Schema{}, fmt.Errorf("public_information: %w", err)
	}
	return game.Schema{Meta: meta, Private: private, Public: public}, nil
}

// Roles builds the role registry from the agent_roles block.
func (e *Experiment) Roles() (*roles.Registry, error) {
	if len(e.AgentRoles) == 0 {
		return nil, fmt.Errorf("experiment %q declares no agent roles", e.Name)
	}
	r := roles.NewRegistry()
	for _, ar := range e.AgentRoles {
		if ar.RoleID <= 0 {
			return nil, fmt.Errorf("role %q: invalid role_id %d", ar.Name, ar.RoleID)
		}
		r.Register(roles.Role{Code: ar.RoleID, Name: ar.Name, TaskPhases: ar.TaskPhases})
	}
	return r, nil
}

func specs(descriptors []FieldDescriptor) ([]fields.Spec, error) {
	out := make([]fields.Spec, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Type == "MarketState" || d.Type == "ChatState" {
			continue
		}
		kind, err := kindFor(d.Type, d.DefaultFactory)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", d.Name, err)
		}
		out = append(out, fields.Spec{
			Name:               d.Name,
			Kind:               kind,
			EventKey:           d.EventKey,
			ExcludeFromMapping: d.ExcludeFromMapping,
			ExcludeEvents:      d.ExcludeEvents,
			Default:            d.Default,
		})
	}
	return out, nil
}

func kindFor(typeName, factory string) (fields.Kind, error) {
	switch typeName {
	case "int":
		return fields.Int, nil
	case "float":
		return fields.Float, nil
	case "str", "string":
		return fields.String, nil
	case "bool":
		return fields.Bool, nil
	case "float_list":
		return fields.FloatList, nil
	case "list":
		if factory == "dict" {
			return fields.MapList, nil
		}
		return fields.AnyList, nil
	case "map_list":
		return fields.MapList, nil
	case "dict", "map":
		return fields.Map, nil
	}
	return "", fmt.Errorf("unknown field type %q", typeName)
}
