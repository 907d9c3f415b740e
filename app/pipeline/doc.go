// Package pipeline turns a batch of scraped candidate records into canonical
// events. Every record is cleaned, sanitized, dated, located and keyed on its
// own; records sharing an identity inside the batch are folded together, and
// the survivors are written through the deduplicator one at a time.
package pipeline
