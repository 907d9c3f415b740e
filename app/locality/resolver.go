package locality

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hann12-34/discovr-ingest/app/datetext"
	"github.com/hann12-34/discovr-ingest/app/event"
	"github.com/hann12-34/discovr-ingest/app/textnorm"
)

type Resolution struct {
	Venue event.Venue
	City  string
}

type aliasEntry struct {
	key  string
	city string
}

type Resolver struct {
	tables  *Tables
	byKey   map[string]string
	aliases []aliasEntry
}

func NewResolver(tables *Tables) *Resolver {
	r := &Resolver{
		tables: tables,
		byKey:  make(map[string]string),
	}

	for _, c := range tables.Cities {
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			k := textnorm.Key(name)
			if k == "" {
				continue
			}
			if _, exists := r.byKey[k]; !exists {
				r.byKey[k] = c.Name
			}
			r.aliases = append(r.aliases, aliasEntry{key: k, city: c.Name})
		}
	}

	return r
}

// Canonicalize maps a free-text city ("montréal", "Toronto, ON") to its
// canonical name.
func (r *Resolver) Canonicalize(value string) (string, bool) {
	if city, ok := r.byKey[textnorm.Key(value)]; ok {
		return city, true
	}
	if i := strings.Index(value, ","); i > 0 {
		if city, ok := r.byKey[textnorm.Key(value[:i])]; ok {
			return city, true
		}
	}
	return "", false
}

// Resolve derives the venue and city for a candidate. sourceHint is the
// city the record's origin declared, if any.
func (r *Resolver) Resolve(candidate event.CandidateRecord, sourceHint string) (Resolution, event.Reason) {
	city := r.resolveCity(candidate, sourceHint)

	name, address := r.venueName(candidate)
	if name == "" {
		if city == event.UnknownCity {
			return Resolution{City: city}, event.ReasonMissingVenue
		}
		name = city + " Venue"
	}

	if city != event.UnknownCity && !textnorm.ContainsFolded(name, city) {
		name = name + ", " + city
	}

	return Resolution{
		Venue: event.Venue{Name: name, Address: address, City: city},
		City:  city,
	}, event.ReasonNone
}

func (r *Resolver) resolveCity(candidate event.CandidateRecord, sourceHint string) string {
	if city, ok := r.Canonicalize(candidate.Venue.City); ok {
		return city
	}
	if city, ok := r.Canonicalize(sourceHint); ok {
		return city
	}
	if city, ok := r.cityFromSource(candidate.SourceID); ok {
		return city
	}

	address := candidate.Venue.Address
	if strings.TrimSpace(address) == "" {
		address = candidate.Location
	}
	if city, ok := r.cityFromText(address); ok {
		return city
	}

	return event.UnknownCity
}

func (r *Resolver) cityFromSource(sourceID string) (string, bool) {
	id := strings.ToLower(sourceID)
	if id == "" {
		return "", false
	}
	for _, s := range r.tables.Sources {
		if strings.Contains(id, strings.ToLower(s.Match)) {
			return s.City, true
		}
	}
	return "", false
}

// cityFromText looks for a city name or alias first, then a region code or
// region name.
func (r *Resolver) cityFromText(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	padded := " " + textnorm.Key(text) + " "
	for _, a := range r.aliases {
		if strings.Contains(padded, " "+a.key+" ") {
			return a.city, true
		}
	}

	tokens := strings.FieldsFunc(text, func(c rune) bool {
		return !unicode.IsLetter(c)
	})
	for _, region := range r.tables.Regions {
		if region.Code == "" {
			continue
		}
		for _, tok := range tokens {
			if tok == region.Code {
				return region.City, true
			}
		}
	}

	for _, region := range r.tables.Regions {
		k := textnorm.Key(region.Name)
		if k != "" && strings.Contains(padded, " "+k+" ") {
			return region.City, true
		}
	}

	return "", false
}

// junkVenueValues are scraper artifacts that sometimes fill a venue field
// in place of a name. The date placeholder phrases count too.
var junkVenueValues = map[string]bool{
	"undefined": true,
	"null":      true,
	"nil":       true,
	"none":      true,
	"nan":       true,
	"n a":       true,
}

// usable collapses whitespace in a venue field and blanks it when it holds
// no real value.
func usable(value string) string {
	value = textnorm.CollapseSpace(value)
	if value == "" || junkVenueValues[textnorm.Key(value)] || datetext.IsPlaceholder(value) {
		return ""
	}
	return value
}

// venueName applies the derivation order: text venue, object name, then the
// first segment of the location string.
func (r *Resolver) venueName(candidate event.CandidateRecord) (name, address string) {
	v := candidate.Venue
	address = usable(v.Address)

	if text := usable(v.Text); text != "" {
		return r.tidy(text), address
	}
	if n := usable(v.Name); n != "" {
		return r.tidy(n), address
	}

	segments := strings.Split(candidate.Location, ",")
	first := usable(segments[0])
	if first == "" {
		return "", address
	}
	if address == "" && len(segments) > 1 {
		rest := make([]string, 0, len(segments)-1)
		for _, s := range segments[1:] {
			if s = usable(s); s != "" {
				rest = append(rest, s)
			}
		}
		address = strings.Join(rest, ", ")
	}
	return r.tidy(first), address
}

// tidy title-cases names scraped in all lower case. Mixed or upper case is
// left as the venue wrote it. Casers are stateful, so each call gets its own.
func (r *Resolver) tidy(name string) string {
	if name == strings.ToLower(name) && strings.ContainsFunc(name, unicode.IsLetter) {
		return cases.Title(language.Und).String(name)
	}
	return name
}
