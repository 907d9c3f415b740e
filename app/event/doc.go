// Package event holds the data model shared by every ingestion stage: the
// untrusted CandidateRecord produced by scrapers, the persisted
// CanonicalEvent, and the rejection taxonomy used for batch accounting.
package event
