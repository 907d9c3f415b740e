package locality

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yml
var defaultTables []byte

type City struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Region is a province or state. Code is matched case-sensitively as a whole
// token ("ON", "BC"); Name case-insensitively.
type Region struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	City string `yaml:"city"`
}

// SourceCity maps source ids containing Match to a city.
type SourceCity struct {
	Match string `yaml:"match"`
	City  string `yaml:"city"`
}

type Tables struct {
	Cities  []City       `yaml:"cities"`
	Regions []Region     `yaml:"regions"`
	Sources []SourceCity `yaml:"sources"`
}

// LoadTables reads the city tables from path, or the built-in tables when
// path is empty.
func LoadTables(path string) (*Tables, error) {
	data := defaultTables
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read cities file: %w", err)
		}
	}

	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse cities file: %w", err)
	}

	if err := tables.validate(); err != nil {
		return nil, fmt.Errorf("invalid cities file: %w", err)
	}

	return &tables, nil
}

// DefaultTables returns the built-in tables. They are validated by tests, so a
// failure here is a programming error.
func DefaultTables() *Tables {
	tables, err := LoadTables("")
	if err != nil {
		panic(err)
	}
	return tables
}

func (t *Tables) validate() error {
	if len(t.Cities) == 0 {
		return fmt.Errorf("no cities defined")
	}

	names := make(map[string]bool, len(t.Cities))
	for i, c := range t.Cities {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("city %d has no name", i)
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate city %q", c.Name)
		}
		names[c.Name] = true
	}

	for _, r := range t.Regions {
		if r.Code == "" && r.Name == "" {
			return fmt.Errorf("region without code or name")
		}
		if !names[r.City] {
			return fmt.Errorf("region %q maps to unknown city %q", r.Code, r.City)
		}
	}

	for _, s := range t.Sources {
		if strings.TrimSpace(s.Match) == "" {
			return fmt.Errorf("source entry without match")
		}
		if !names[s.City] {
			return fmt.Errorf("source %q maps to unknown city %q", s.Match, s.City)
		}
	}

	return nil
}
