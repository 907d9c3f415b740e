// Package dedup decides whether a resolved event is new, a duplicate to
// merge into an existing record, or a lost race to discard. Identity is
// derived from the event URL when there is one and from title, venue and
// day otherwise; the store's unique key index replaces any in-memory
// "seen" set.
package dedup
