// Package sanitize rejects candidate records whose title or date text is not
// event content: navigation labels, leaked CSS/SVG markup, placeholder dates
// and per-source filter rules.
package sanitize
