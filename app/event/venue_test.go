package event

import (
	"encoding/json"
	"testing"
)

func TestRawVenueUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected RawVenue
	}{
		{"String", `"Commodore Ballroom"`, RawVenue{Text: "Commodore Ballroom"}},
		{"Object", `{"name":"Rogers Arena","address":"800 Griffiths Way","city":"Vancouver"}`,
			RawVenue{Name: "Rogers Arena", Address: "800 Griffiths Way", City: "Vancouver"}},
		{"Object with non-string fields", `{"name":"Club","address":42,"city":null}`, RawVenue{Name: "Club"}},
		{"Null", `null`, RawVenue{}},
		{"Number", `17`, RawVenue{}},
		{"Array", `["a","b"]`, RawVenue{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := RawVenue{Text: "stale"}
			if err := v.UnmarshalJSON([]byte(tt.input)); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if v != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, v)
			}
		})
	}
}

func TestCandidateRecordVenueShapes(t *testing.T) {
	payload := `[
		{"title":"Jazz Night","venue":"The Roxy","source_id":"roxy"},
		{"title":"Expo","venue":{"name":"Palais des congrès","city":"Montréal"},"source_id":"palais"},
		{"title":"Pop-up","source_id":"misc"}
	]`

	var records []CandidateRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		t.Fatalf("Failed to decode records: %v", err)
	}

	if records[0].Venue.Text != "The Roxy" {
		t.Errorf("Expected text venue 'The Roxy', got %+v", records[0].Venue)
	}
	if records[1].Venue.Name != "Palais des congrès" || records[1].Venue.City != "Montréal" {
		t.Errorf("Expected object venue, got %+v", records[1].Venue)
	}
	if !records[2].Venue.IsEmpty() {
		t.Errorf("Expected empty venue for missing field, got %+v", records[2].Venue)
	}
}

func TestRawVenueMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		venue    RawVenue
		expected string
	}{
		{"Text", TextVenue("The Roxy"), `"The Roxy"`},
		{"Empty", RawVenue{}, `null`},
		{"Object", RawVenue{Name: "Rogers Arena", City: "Vancouver"}, `{"address":"","city":"Vancouver","name":"Rogers Arena"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.venue)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, data)
			}
		})
	}
}

func TestRawVenueIsEmpty(t *testing.T) {
	if !(RawVenue{Text: "   ", City: "\t"}).IsEmpty() {
		t.Error("Expected whitespace-only venue to be empty")
	}
	if (RawVenue{Address: "800 Griffiths Way"}).IsEmpty() {
		t.Error("Expected venue with an address to be non-empty")
	}
}

func TestSummaryCount(t *testing.T) {
	var s Summary
	for _, r := range []Reason{
		ReasonJunkTitle, ReasonJunkTitle, ReasonJunkDate, ReasonUnparseableDate,
		ReasonDateOutOfWindow, ReasonMissingVenue, ReasonPersistenceConflict, ReasonDuplicateSuppressed,
	} {
		s.Count(r)
	}

	if s.RejectedJunkTitle != 2 {
		t.Errorf("Expected 2 junk titles, got %d", s.RejectedJunkTitle)
	}
	if s.RejectedJunkDate != 1 || s.RejectedUnparseableDate != 1 || s.RejectedOutOfWindow != 1 {
		t.Errorf("Expected one of each date rejection, got %+v", s)
	}
	if s.RejectedMissingVenue != 1 || s.PersistenceConflicts != 1 {
		t.Errorf("Expected one missing venue and one conflict, got %+v", s)
	}
	if s.MergedDuplicate != 0 {
		t.Errorf("Expected merges to be counted by the caller, got %d", s.MergedDuplicate)
	}
}

func TestReasonTerminal(t *testing.T) {
	if ReasonNone.Terminal() || ReasonDuplicateSuppressed.Terminal() {
		t.Error("Expected none and duplicate_suppressed to be non-terminal")
	}
	if !ReasonJunkTitle.Terminal() || !ReasonPersistenceConflict.Terminal() {
		t.Error("Expected rejections to be terminal")
	}
}
