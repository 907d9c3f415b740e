package source

import (
	"github.com/hann12-34/discovr-ingest/app/datetext"
	"github.com/hann12-34/discovr-ingest/app/sanitize"
)

type Config struct {
	Name     string          // Derived from filename (without .yml extension)
	Settings ConfigSettings  `yaml:"settings"`
	Filters  []sanitize.Rule `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled       bool   `yaml:"enabled"`
	CityHint      string `yaml:"city_hint"`      // city every record from this source is in, unless it says otherwise
	DateOrder     string `yaml:"date_order"`     // "mdy" or "dmy" for numeric dates
	MaxCandidates int    `yaml:"max_candidates"` // batches larger than this are rejected
}

// Order returns the numeric date order hint for the source.
func (c *Config) Order() datetext.Order {
	return datetext.ParseOrder(c.Settings.DateOrder)
}
