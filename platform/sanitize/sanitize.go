// Package sanitize cleans scraped listing text (titles, addresses, building
// and room names) before it is stored on a listing and echoed in panels.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// spaceRegex matches runs of whitespace
	spaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML drops markup that scrapers leave in listing fields, decodes the
// common entities and drops any tags the decoding reveals.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// &lt;b&gt; decodes to a tag
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML, removes byte-order marks and collapses whitespace.
// Use for scraped text fields like titles, addresses and building names.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\ufeff", "")
	s = StripHTML(s)
	return spaceRegex.ReplaceAllString(s, " ")
}
