// Package textnorm provides the text folding shared by date parsing, city
// resolution and dedup keys.
//
// Fold removes diacritics and lowercases, so "Montréal" and "MONTREAL" compare
// equal. Key additionally collapses every run of non-alphanumeric characters
// to a single space, which is the form used when deriving identity from
// scraped titles and venue names.
package textnorm
