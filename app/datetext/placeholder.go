package datetext

import (
	"strings"

	"github.com/hann12-34/discovr-ingest/app/textnorm"
)

// maxPlaceholderResidue is how much digit-free text may surround a
// placeholder phrase before the text stops counting as a placeholder.
const maxPlaceholderResidue = 12

// PlaceholderPhrases is the single table of "no real date here" phrases. The
// sanitizer reads the same table.
var PlaceholderPhrases = []string{
	"tba",
	"tbd",
	"to be announced",
	"to be determined",
	"ongoing",
	"check website",
	"see website",
	"visit website",
}

// IsPlaceholder reports whether text is a placeholder phrase, alone or with a
// short digit-free residue such as "Dates TBA" or "See website for dates".
func IsPlaceholder(text string) bool {
	k := textnorm.Key(text)
	if k == "" {
		return false
	}

	for _, phrase := range PlaceholderPhrases {
		if k == phrase {
			return true
		}

		var residue string
		switch {
		case strings.HasPrefix(k, phrase+" "):
			residue = k[len(phrase)+1:]
		case strings.HasSuffix(k, " "+phrase):
			residue = k[:len(k)-len(phrase)-1]
		default:
			continue
		}

		if len(residue) <= maxPlaceholderResidue && !strings.ContainsAny(residue, "0123456789") {
			return true
		}
	}

	return false
}
