package event

import (
	"time"
)

// Candidate processing types

type CandidateRecord struct {
	Title       string   `json:"title"`
	RawDateText *string  `json:"raw_date_text,omitempty"`
	Venue       RawVenue `json:"venue"`
	Location    string   `json:"location,omitempty"` // Free-text location some sources emit instead of a venue
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	SourceID    string   `json:"source_id"`
	CityHint    string   `json:"city_hint,omitempty"`
}

// DateText returns the raw date text or "" when the source sent none.
func (c CandidateRecord) DateText() string {
	if c.RawDateText == nil {
		return ""
	}
	return *c.RawDateText
}

// Canonical types

type Venue struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city"`
}

type CanonicalEvent struct {
	ID          string     `json:"id"`
	DedupKey    string     `json:"dedup_key"`
	ContentKey  string     `json:"content_key"` // Composite key, kept even when DedupKey is URL based
	URLBase     string     `json:"url_base,omitempty"`
	Title       string     `json:"title"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Venue       Venue      `json:"venue"`
	City        string     `json:"city"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
	SourceID    string     `json:"source_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UnknownCity is the only non-canonical value City may hold.
const UnknownCity = "Unknown"

// Batch accounting types

type Rejection struct {
	Record CandidateRecord `json:"record"`
	Reason Reason          `json:"reason"`
	Detail string          `json:"detail,omitempty"`
}

type Summary struct {
	Total                   int `json:"total"`
	Accepted                int `json:"accepted"`
	RejectedJunkTitle       int `json:"rejected_junk_title"`
	RejectedJunkDate        int `json:"rejected_junk_date"`
	RejectedUnparseableDate int `json:"rejected_unparseable_date"`
	RejectedOutOfWindow     int `json:"rejected_out_of_window"`
	RejectedMissingVenue    int `json:"rejected_missing_venue"`
	MergedDuplicate         int `json:"merged_duplicate"`
	InsertedNew             int `json:"inserted_new"`
	PersistenceConflicts    int `json:"persistence_conflicts"`
}

// Count records one rejection against its summary bucket.
func (s *Summary) Count(reason Reason) {
	switch reason {
	case ReasonJunkTitle:
		s.RejectedJunkTitle++
	case ReasonJunkDate:
		s.RejectedJunkDate++
	case ReasonUnparseableDate:
		s.RejectedUnparseableDate++
	case ReasonDateOutOfWindow:
		s.RejectedOutOfWindow++
	case ReasonMissingVenue:
		s.RejectedMissingVenue++
	case ReasonPersistenceConflict:
		s.PersistenceConflicts++
	}
}
