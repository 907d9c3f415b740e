// Package datetext turns free-form scraped date text into a canonical date
// range.
//
// Supported inputs include ISO fragments ("2025-07-08"), English and French
// month names with or without a year ("Jan 15", "15 janvier 2026"), weekday
// prefixes, ordinal suffixes, ranges ("July 8 - 20, 2025", "16 Jan - 17 Jan
// 2026") and numeric dates whose day/month order is supplied by the caller.
//
// When no year is present the year is inferred from the reference time: a
// month earlier than the reference month belongs to next year. This is
// deliberately simple and can misplace a recently past event into next year.
package datetext
