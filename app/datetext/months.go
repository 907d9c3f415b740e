package datetext

import "time"

var englishMonths = map[string]time.Month{
	"january":   time.January,
	"jan":       time.January,
	"february":  time.February,
	"feb":       time.February,
	"march":     time.March,
	"mar":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"may":       time.May,
	"june":      time.June,
	"jun":       time.June,
	"july":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sept":      time.September,
	"sep":       time.September,
	"october":   time.October,
	"oct":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"december":  time.December,
	"dec":       time.December,
}

// frenchMonths translates folded French month names and abbreviations to the
// English vocabulary above. Abbreviations shared with English ("oct", "nov",
// "dec", "sept") are not repeated.
var frenchMonths = map[string]string{
	"janvier":   "january",
	"janv":      "january",
	"fevrier":   "february",
	"fevr":      "february",
	"fev":       "february",
	"mars":      "march",
	"avril":     "april",
	"avr":       "april",
	"mai":       "may",
	"juin":      "june",
	"juillet":   "july",
	"juil":      "july",
	"aout":      "august",
	"septembre": "september",
	"octobre":   "october",
	"novembre":  "november",
	"decembre":  "december",
}

// lookupMonth resolves a folded word to a month.
func lookupMonth(word string) (time.Month, bool) {
	if english, ok := frenchMonths[word]; ok {
		word = english
	}
	m, ok := englishMonths[word]
	return m, ok
}
