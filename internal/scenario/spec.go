package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Selector picks the source an item targets. Fields are glob patterns in
// path.Match syntax; an empty field matches everything at that level. A
// selector that still matches more than one source makes the item ambiguous.
type Selector struct {
	Session string `yaml:"session"`
	Trial   string `yaml:"trial"`
	Source  string `yaml:"source"`
}

func (s Selector) String() string {
	part := func(pattern string) string {
		if pattern == "" {
			return "*"
		}
		return pattern
	}
	return part(s.Session) + "/" + part(s.Trial) + "/" + part(s.Source)
}

// Item is one requested derived artifact.
type Item struct {
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params"`
	Select Selector       `yaml:"select"`
}

// Spec is an ordered list of requested derived artifacts.
type Spec struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

// ParseSpec reads a scenario specification from YAML bytes.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(spec.Items) == 0 {
		return nil, fmt.Errorf("scenario lists no items")
	}
	for i, item := range spec.Items {
		if strings.TrimSpace(item.Kind) == "" {
			return nil, fmt.Errorf("scenario item %d has no kind", i+1)
		}
	}
	if strings.TrimSpace(spec.Name) == "" {
		spec.Name = "scenario"
	}
	return &spec, nil
}

// LoadSpec reads a scenario specification from a file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return ParseSpec(data)
}
