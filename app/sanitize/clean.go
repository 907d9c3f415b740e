package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hann12-34/discovr-ingest/app/textnorm"
)

// CleanText strips HTML tags and entities from a scraped field and collapses
// whitespace. Plain text only has its whitespace collapsed.
func CleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return textnorm.CollapseSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return textnorm.CollapseSpace(s)
	}
	doc.Find("script, style, noscript").Remove()

	// Block elements would otherwise glue neighbouring words together.
	doc.Find("br, p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.BeforeHtml(" ")
	})

	return textnorm.CollapseSpace(doc.Text())
}
