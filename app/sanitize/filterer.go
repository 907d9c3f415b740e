package sanitize

import (
	"fmt"
	"strings"

	"github.com/hann12-34/discovr-ingest/app/event"
)

// Rule is a per-source include/exclude filter declared in the source's YAML.
type Rule struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

var ruleFields = map[string]bool{
	"title":       true,
	"description": true,
	"venue":       true,
	"location":    true,
	"url":         true,
}

// ValidField reports whether a rule may reference field.
func ValidField(field string) bool {
	return ruleFields[field]
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run applies the rules in order and returns the first rejection.
func (f *Filterer) Run(candidate event.CandidateRecord, rules []Rule) Decision {
	for _, rule := range rules {
		value := f.getFieldValue(candidate, rule.Field)

		for _, exclude := range rule.Excludes {
			if f.matchesRule(value, exclude) {
				return reject(event.ReasonJunkTitle, "excluded by %s filter: contains '%s'", rule.Field, exclude)
			}
		}

		if len(rule.Includes) > 0 {
			matched := false
			for _, include := range rule.Includes {
				if f.matchesRule(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return Decision{
					Reason: event.ReasonJunkTitle,
					Detail: fmt.Sprintf("excluded by %s filter: does not contain any of %v", rule.Field, rule.Includes),
				}
			}
		}
	}

	return keep()
}

func (f *Filterer) matchesRule(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(candidate event.CandidateRecord, field string) string {
	switch field {
	case "title":
		return candidate.Title
	case "description":
		return candidate.Description
	case "venue":
		v := candidate.Venue
		return strings.Join([]string{v.Text, v.Name, v.Address, v.City}, " ")
	case "location":
		return candidate.Location
	case "url":
		return candidate.URL
	default:
		return ""
	}
}
