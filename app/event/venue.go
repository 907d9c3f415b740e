package event

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawVenue is the venue field exactly as a scraper produced it. Sources send
// a bare string, an object, or nothing; only the locality package interprets
// it.
type RawVenue struct {
	Text    string
	Name    string
	Address string
	City    string
}

type rawVenueObject struct {
	Name    any `json:"name"`
	Address any `json:"address"`
	City    any `json:"city"`
}

// TextVenue builds a RawVenue for sources that send the venue as plain text.
func TextVenue(text string) RawVenue {
	return RawVenue{Text: text}
}

// IsEmpty reports whether the scraper sent nothing usable at all.
func (v RawVenue) IsEmpty() bool {
	return strings.TrimSpace(v.Text) == "" &&
		strings.TrimSpace(v.Name) == "" &&
		strings.TrimSpace(v.Address) == "" &&
		strings.TrimSpace(v.City) == ""
}

// UnmarshalJSON accepts a string, an object or null. Any other JSON shape
// decodes to an empty venue instead of failing the whole batch.
func (v *RawVenue) UnmarshalJSON(data []byte) error {
	*v = RawVenue{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil
		}
		v.Text = text
	case '{':
		var obj rawVenueObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		v.Name = stringValue(obj.Name)
		v.Address = stringValue(obj.Address)
		v.City = stringValue(obj.City)
	}

	return nil
}

// MarshalJSON writes the venue back in the shape it arrived in.
func (v RawVenue) MarshalJSON() ([]byte, error) {
	if v.Text != "" {
		return json.Marshal(v.Text)
	}
	if v.Name == "" && v.Address == "" && v.City == "" {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]string{
		"name":    v.Name,
		"address": v.Address,
		"city":    v.City,
	})
}

// stringValue keeps strings and drops every other JSON type.
func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
