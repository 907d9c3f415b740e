package datetext

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/hann12-34/discovr-ingest/app/textnorm"
)

// Order tells the parser how to read purely numeric dates such as 03/04/2025.
type Order int

const (
	OrderUnknown Order = iota
	OrderMonthFirst
	OrderDayFirst
)

// ParseOrder maps a source configuration value ("mdy", "dmy") to an Order.
func ParseOrder(value string) Order {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mdy", "month_first", "us":
		return OrderMonthFirst
	case "dmy", "day_first", "eu":
		return OrderDayFirst
	default:
		return OrderUnknown
	}
}

func (o Order) String() string {
	switch o {
	case OrderMonthFirst:
		return "mdy"
	case OrderDayFirst:
		return "dmy"
	default:
		return "unknown"
	}
}

// Range is a parsed event date. End is nil for single-day events.
type Range struct {
	Start time.Time
	End   *time.Time
}

var (
	isoPattern     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})`)
	numericPattern = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{2,4})\b`)
	tokenPattern   = regexp.MustCompile(`[a-z]+|\d+|[-–—]`)

	dottedClock     = regexp.MustCompile(`\b\d{1,2}\.\d{2}\s*(am\b|pm\b|[ap]\.m\.)`)
	clockPattern    = regexp.MustCompile(`\b\d{1,2}(:\d{2}){1,2}(\s*(am\b|pm\b|[ap]\.m\.))?`)
	meridiemPattern = regexp.MustCompile(`\b\d{1,2}\s*(am\b|pm\b|[ap]\.m\.)`)
	frenchClock     = regexp.MustCompile(`\b\d{1,2}h\d{0,2}\b`)
	compactStamp    = regexp.MustCompile(`\b\d{8}\b`)
	ordinalPattern  = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th|er|eme|e)\b`)
)

type Parser struct {
	order Order
}

func NewParser(order Order) *Parser {
	return &Parser{order: order}
}

// Run parses text relative to now. It returns false for empty text,
// placeholders and anything it cannot read; it never panics.
func (p *Parser) Run(text string, now time.Time) (Range, bool) {
	if strings.TrimSpace(text) == "" || IsPlaceholder(text) {
		return Range{}, false
	}

	folded := textnorm.Fold(text)

	if r, ok := p.parseISO(folded); ok {
		return r, true
	}

	if numericPattern.MatchString(folded) {
		return p.parseNumeric(folded)
	}

	cleaned := stripNoise(folded)
	if parts := collectParts(tokenPattern.FindAllString(cleaned, -1)); len(parts) > 0 {
		return buildRange(parts, now)
	}

	if hasDayComponent(folded) {
		return parseFallback(text)
	}

	return Range{}, false
}

func (p *Parser) parseISO(text string) (Range, bool) {
	matches := isoPattern.FindAllStringSubmatch(text, 2)
	if len(matches) == 0 {
		return Range{}, false
	}

	var dates []time.Time
	for _, m := range matches {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, time.Month(month), day); ok {
			dates = append(dates, d)
		}
	}

	return rangeOf(dates)
}

func (p *Parser) parseNumeric(text string) (Range, bool) {
	matches := numericPattern.FindAllStringSubmatch(text, 2)

	var dates []time.Time
	for _, m := range matches {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])

		year, _ := strconv.Atoi(m[3])
		switch len(m[3]) {
		case 2:
			year += 2000
		case 4:
		default:
			return Range{}, false
		}

		month, day, ok := p.resolveOrder(a, b)
		if !ok {
			return Range{}, false
		}

		d, ok := makeDate(year, time.Month(month), day)
		if !ok {
			return Range{}, false
		}
		dates = append(dates, d)
	}

	return rangeOf(dates)
}

// resolveOrder applies the caller's order hint. Without a hint only dates
// that cannot be read two ways are accepted.
func (p *Parser) resolveOrder(a, b int) (month, day int, ok bool) {
	switch p.order {
	case OrderMonthFirst:
		return a, b, true
	case OrderDayFirst:
		return b, a, true
	}

	switch {
	case a == b:
		return a, b, true
	case a > 12 && b <= 12:
		return b, a, true
	case b > 12 && a <= 12:
		return a, b, true
	default:
		return 0, 0, false
	}
}

// stripNoise removes times of day and ordinal suffixes so only month words,
// day numbers and years remain meaningful.
func stripNoise(text string) string {
	text = dottedClock.ReplaceAllString(text, " ")
	text = clockPattern.ReplaceAllString(text, " ")
	text = meridiemPattern.ReplaceAllString(text, " ")
	text = frenchClock.ReplaceAllString(text, " ")
	text = ordinalPattern.ReplaceAllString(text, "$1")
	return text
}

type part struct {
	day   int
	month time.Month
	year  int
}

// rangeConnectors join the two ends of a range. Dashes arrive as their own
// tokens.
var rangeConnectors = map[string]bool{
	"-": true, "–": true, "—": true,
	"to": true, "through": true, "thru": true, "until": true, "till": true,
	"au": true, "jusqu": true,
}

// collectParts walks the tokens and assembles day/month/year triples. Words
// that are not months (weekdays, filler) are skipped. Days written before
// their month ("16 jan", "8-20 juillet") wait in pending until the month
// arrives. A bare day after a complete date ("july 8 - 20") takes the last
// month seen, but only when a range connector came first; otherwise it is
// some other number ("ages 19+") and is dropped. A year applies to every
// earlier part that has none.
func collectParts(tokens []string) []part {
	var (
		parts       []part
		pending     []int
		curMonth    time.Month
		lastMonth   time.Month
		leadingYear int
		connected   bool
	)

	add := func(p part) {
		parts = append(parts, p)
		connected = false
	}

	flush := func(m time.Month) {
		for _, d := range pending {
			add(part{day: d, month: m})
		}
		pending = nil
	}

	// flushTrailing settles days that no month word followed.
	flushTrailing := func() {
		if len(pending) == 0 {
			return
		}
		if lastMonth != 0 && connected {
			flush(lastMonth)
			return
		}
		if len(parts) > 0 {
			pending = nil
		}
	}

	for idx, tok := range tokens {
		if rangeConnectors[tok] {
			connected = true
			continue
		}

		if m, ok := lookupMonth(tok); ok {
			if isWeekdayAbbreviation(tokens, idx) {
				continue
			}
			if len(pending) > 0 {
				flush(m)
				curMonth = 0
			} else {
				curMonth = m
			}
			lastMonth = m
			continue
		}

		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}

		switch {
		case len(tok) == 4 && n >= 1900 && n <= 2100:
			flushTrailing()
			if len(parts) == 0 {
				leadingYear = n
			}
			for i := range parts {
				if parts[i].year == 0 {
					parts[i].year = n
				}
			}
			curMonth = 0
		case len(tok) <= 2 && n >= 1 && n <= 31:
			if curMonth != 0 {
				add(part{day: n, month: curMonth})
				curMonth = 0
			} else {
				pending = append(pending, n)
			}
		}
	}

	flushTrailing()

	if leadingYear != 0 {
		for i := range parts {
			if parts[i].year == 0 {
				parts[i].year = leadingYear
			}
		}
	}

	return parts
}

// isWeekdayAbbreviation reports whether the month word at idx is really the
// French weekday "mar" (mardi), as in "mar. 14 janv. 2026": a day number and
// then another month word follow it.
func isWeekdayAbbreviation(tokens []string, idx int) bool {
	if tokens[idx] != "mar" || idx+2 >= len(tokens) {
		return false
	}
	if _, err := strconv.Atoi(tokens[idx+1]); err != nil {
		return false
	}
	_, ok := lookupMonth(tokens[idx+2])
	return ok
}

// hasDayComponent reports whether text carries enough date parts for the
// fallback to read a real day: a compact stamp such as 20250708, or at least
// three numbers or month words. A bare year or month and year does not.
func hasDayComponent(text string) bool {
	if compactStamp.MatchString(text) {
		return true
	}

	components := 0
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if _, ok := lookupMonth(tok); ok {
			components++
			continue
		}
		if _, err := strconv.Atoi(tok); err == nil {
			components++
		}
	}
	return components >= 3
}

func buildRange(parts []part, now time.Time) (Range, bool) {
	first := parts[0]

	startYear := first.year
	if startYear == 0 {
		startYear = inferYear(first.month, now)
	}

	if len(parts) == 1 {
		start, ok := makeDate(startYear, first.month, first.day)
		if !ok {
			return Range{}, false
		}
		return Range{Start: start}, true
	}

	last := parts[len(parts)-1]
	endYear := last.year
	switch {
	case endYear == 0:
		endYear = startYear
		if last.month < first.month {
			endYear++
		}
	case first.year == endYear && last.month < first.month:
		// "Dec 28 - Jan 3, 2026": the trailing year belongs to the end.
		startYear--
	}

	start, ok := makeDate(startYear, first.month, first.day)
	if !ok {
		return Range{}, false
	}

	end, ok := makeDate(endYear, last.month, last.day)
	if !ok || !end.After(start) {
		return Range{Start: start}, true
	}

	return Range{Start: start, End: &end}, true
}

// inferYear is the missing-year rule: a month earlier than the reference
// month is next year's.
func inferYear(month time.Month, now time.Time) int {
	if month < now.Month() {
		return now.Year() + 1
	}
	return now.Year()
}

// makeDate builds a UTC midnight date and rejects overflow such as Feb 30.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func rangeOf(dates []time.Time) (Range, bool) {
	if len(dates) == 0 {
		return Range{}, false
	}
	r := Range{Start: dates[0]}
	if len(dates) > 1 && dates[1].After(dates[0]) {
		end := dates[1]
		r.End = &end
	}
	return r, true
}

// parseFallback hands text none of the passes understood to dateparse.
// dateparse panics on some malformed inputs.
func parseFallback(text string) (r Range, ok bool) {
	defer func() {
		if recover() != nil {
			r, ok = Range{}, false
		}
	}()

	t, err := dateparse.ParseIn(strings.TrimSpace(text), time.UTC)
	if err != nil {
		return Range{}, false
	}

	start, valid := makeDate(t.Year(), t.Month(), t.Day())
	if !valid {
		return Range{}, false
	}
	return Range{Start: start}, true
}
