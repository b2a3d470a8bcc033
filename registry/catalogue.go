// Package registry loads the noun-verb command catalogue and compiles it
// into triples for the store. The catalogue is the single build input: no
// global registration, just an explicit load-compile-build step.
package registry

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
)

// ArgType enumerates the argument types commands may declare.
type ArgType string

const (
	TypeString ArgType = "string"
	TypeInt    ArgType = "int"
	TypeFloat  ArgType = "float"
	TypeBool   ArgType = "bool"
)

func (t ArgType) valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool:
		return true
	default:
		return false
	}
}

// Arg declares one command argument.
type Arg struct {
	Name     string  `yaml:"name"`
	Type     ArgType `yaml:"type"`
	Required bool    `yaml:"required"`
	Summary  string  `yaml:"summary"`
}

// Command is one noun-verb command in the catalogue.
type Command struct {
	Name    string `yaml:"name"`
	Noun    string `yaml:"noun"`
	Verb    string `yaml:"verb"`
	Summary string `yaml:"summary"`
	Args    []Arg  `yaml:"args"`
}

// Catalogue is the full command registry.
type Catalogue struct {
	Commands []Command `yaml:"commands"`
}

// Command looks up a command by name.
func (c *Catalogue) Command(name string) (Command, bool) {
	for _, cmd := range c.Commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Command{}, false
}

// ArgTypes returns the distinct argument types used by the catalogue, in
// first-use order.
func (c *Catalogue) ArgTypes() []ArgType {
	var (
		seen  = make(map[ArgType]struct{})
		types []ArgType
	)
	for _, cmd := range c.Commands {
		for _, arg := range cmd.Args {
			if _, dup := seen[arg.Type]; !dup {
				seen[arg.Type] = struct{}{}
				types = append(types, arg.Type)
			}
		}
	}
	return types
}

// Load reads and validates a catalogue file.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalogue %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates catalogue YAML.
func Parse(data []byte) (*Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalogue YAML")
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalogue) validate() error {
	names := make(map[string]struct{}, len(c.Commands))
	for i, cmd := range c.Commands {
		if cmd.Name == "" {
			return errors.Newf("catalogue command %d has no name", i)
		}
		if _, dup := names[cmd.Name]; dup {
			return errors.Newf("duplicate command %q in catalogue", cmd.Name)
		}
		names[cmd.Name] = struct{}{}
		if cmd.Noun == "" || cmd.Verb == "" {
			return errors.Newf("command %q must declare both noun and verb", cmd.Name)
		}
		argNames := make(map[string]struct{}, len(cmd.Args))
		for _, arg := range cmd.Args {
			if arg.Name == "" {
				return errors.Newf("command %q has an unnamed argument", cmd.Name)
			}
			if _, dup := argNames[arg.Name]; dup {
				return errors.Newf("command %q declares argument %q twice", cmd.Name, arg.Name)
			}
			argNames[arg.Name] = struct{}{}
			if !arg.Type.valid() {
				return errors.Newf("command %q argument %q has unknown type %q", cmd.Name, arg.Name, arg.Type)
			}
		}
	}
	return nil
}
