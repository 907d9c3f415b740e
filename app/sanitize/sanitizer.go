package sanitize

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hann12-34/discovr-ingest/app/datetext"
	"github.com/hann12-34/discovr-ingest/app/event"
	"github.com/hann12-34/discovr-ingest/app/textnorm"
)

const (
	DefaultMinTitleLength = 10
	DefaultMaxTitleLength = 250
)

// junkTitles are UI strings scrapers pick up from navigation and buttons.
var junkTitles = []string{
	"buy tickets",
	"more info",
	"learn more",
	"view all",
	"events",
	"home",
	"menu",
	"tickets",
	"details",
	"info",
	"what's on",
}

// markupSignatures show up when a scraper grabs inline CSS or SVG paths.
var markupSignatures = []string{
	"{fill:",
	"evenodd",
}

const titleSeparators = "|»›:-–>"

type Decision struct {
	Keep   bool
	Reason event.Reason
	Detail string
}

func keep() Decision {
	return Decision{Keep: true}
}

func reject(reason event.Reason, format string, args ...any) Decision {
	return Decision{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

type Sanitizer struct {
	minTitleLength int
	maxTitleLength int
}

func NewSanitizer(minTitleLength, maxTitleLength int) *Sanitizer {
	if minTitleLength <= 0 {
		minTitleLength = DefaultMinTitleLength
	}
	if maxTitleLength <= 0 {
		maxTitleLength = DefaultMaxTitleLength
	}
	return &Sanitizer{minTitleLength: minTitleLength, maxTitleLength: maxTitleLength}
}

// Classify checks the title first, then the date text.
func (s *Sanitizer) Classify(title, dateText string) Decision {
	if d := s.ClassifyTitle(title); !d.Keep {
		return d
	}
	return s.ClassifyDate(dateText)
}

func (s *Sanitizer) ClassifyTitle(title string) Decision {
	t := textnorm.CollapseSpace(title)
	lower := strings.ToLower(strings.ReplaceAll(t, "’", "'"))

	if strings.HasPrefix(lower, ".a{") {
		return reject(event.ReasonJunkTitle, "markup signature %q", ".a{")
	}
	for _, sig := range markupSignatures {
		if strings.Contains(lower, sig) {
			return reject(event.ReasonJunkTitle, "markup signature %q", sig)
		}
	}

	for _, phrase := range junkTitles {
		if isJunkPhrase(lower, phrase) {
			return reject(event.ReasonJunkTitle, "generic label %q", phrase)
		}
	}

	n := utf8.RuneCountInString(t)
	if n < s.minTitleLength {
		return reject(event.ReasonJunkTitle, "title shorter than %d characters", s.minTitleLength)
	}
	if n > s.maxTitleLength {
		return reject(event.ReasonJunkTitle, "title longer than %d characters", s.maxTitleLength)
	}

	return keep()
}

func (s *Sanitizer) ClassifyDate(dateText string) Decision {
	if strings.TrimSpace(dateText) == "" {
		return reject(event.ReasonJunkDate, "empty date text")
	}
	if datetext.IsPlaceholder(dateText) {
		return reject(event.ReasonJunkDate, "placeholder date %q", textnorm.CollapseSpace(dateText))
	}
	return keep()
}

// isJunkPhrase matches the phrase alone, or followed by something that is
// clearly decoration ("More Info »", "Events | Venue Name").
func isJunkPhrase(title, phrase string) bool {
	if title == phrase {
		return true
	}
	if !strings.HasPrefix(title, phrase) {
		return false
	}

	rest := title[len(phrase):]
	if !strings.ContainsFunc(rest, unicode.IsLetter) {
		return true
	}

	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	r, _ := utf8.DecodeRuneInString(rest)
	return strings.ContainsRune(titleSeparators, r)
}
