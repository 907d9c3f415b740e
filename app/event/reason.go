package event

import "errors"

// Reason is the machine-readable outcome attached to a record that did not
// become a new canonical event.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonJunkTitle           Reason = "junk_title"
	ReasonJunkDate            Reason = "junk_date"
	ReasonUnparseableDate     Reason = "unparseable_date"
	ReasonDateOutOfWindow     Reason = "date_out_of_window"
	ReasonMissingVenue        Reason = "missing_venue"
	ReasonDuplicateSuppressed Reason = "duplicate_suppressed"
	ReasonPersistenceConflict Reason = "persistence_conflict"
)

// ErrConflict is returned by stores when an insert races another writer for
// the same dedup key.
var ErrConflict = errors.New("dedup key already exists")

// Terminal reports whether the reason ends a record's trip through the pipeline.
func (r Reason) Terminal() bool {
	return r != ReasonNone && r != ReasonDuplicateSuppressed
}
