package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

const blockSelector = "p, br, div, li, blockquote, pre, h1, h2, h3, h4, h5, h6, tr"

// PlainText extracts the visible text of an HTML fragment with whitespace collapsed.
// Block boundaries become spaces so "<p>a</p><p>b</p>" reads "a b".
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find(blockSelector).AfterHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate cuts s to at most max runes. When it has to cut, the result ends with
// ellipsis and still fits in max runes.
func Truncate(s string, max int, ellipsis string) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - utf8.RuneCountInString(ellipsis)
	if keep <= 0 {
		return string([]rune(s)[:max])
	}
	return strings.TrimRight(string([]rune(s)[:keep]), " ") + ellipsis
}
