package attrschema

import "fmt"

// ArgConfig is the YAML form of an Arg.
type ArgConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional,omitempty"`
}

// SchemaConfig is the YAML form of a Schema.
type SchemaConfig struct {
	Name      string      `yaml:"name"`
	Placement []string    `yaml:"placement,omitempty"`
	Args      []ArgConfig `yaml:"args,omitempty"`
}

// Schema converts the configuration. An empty placement means anywhere.
func (c SchemaConfig) Schema() (Schema, error) {
	if c.Name == "" {
		return Schema{}, fmt.Errorf("attribute schema: missing name")
	}
	s := Schema{Name: c.Name}
	if len(c.Placement) == 0 {
		s.Placement = PlaceAnywhere
	}
	for _, p := range c.Placement {
		place, ok := ParsePlacement(p)
		if !ok {
			return Schema{}, fmt.Errorf("attribute schema @%s: unknown placement %q", c.Name, p)
		}
		s.Placement |= place
	}
	seen := make(map[string]bool, len(c.Args))
	for _, a := range c.Args {
		if a.Name == "" {
			return Schema{}, fmt.Errorf("attribute schema @%s: argument without name", c.Name)
		}
		if seen[a.Name] {
			return Schema{}, fmt.Errorf("attribute schema @%s: duplicate argument %q", c.Name, a.Name)
		}
		seen[a.Name] = true
		t, ok := ParseArgType(a.Type)
		if !ok {
			return Schema{}, fmt.Errorf("attribute schema @%s: argument %q has unknown type %q", c.Name, a.Name, a.Type)
		}
		s.Args = append(s.Args, Arg{Name: a.Name, Type: t, Optional: a.Optional})
	}
	return s, nil
}
