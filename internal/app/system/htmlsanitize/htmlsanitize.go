// Package htmlsanitize cleans user-supplied course text.
//
// Course descriptions may carry light rich-text markup (paragraphs, lists,
// emphasis, links). Titles are plain text; any markup in them is stripped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy   = newRichPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("table", "tr", "td", "th", "code", "pre")
	p.AllowElements("u", "s", "mark")
	return p
}

// Sanitize removes scripts, event handlers, unsafe URLs, and any element the
// rich-text policy does not allow. Safe markup is returned unchanged.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// IsPlainText reports whether s contains no tag-like "<...>" sequence.
func IsPlainText(s string) bool {
	open := strings.Index(s, "<")
	if open < 0 {
		return true
	}
	return !strings.Contains(s[open:], ">")
}

// Description returns s untouched when it is plain text and sanitized
// otherwise, so plain descriptions are not entity-escaped.
func Description(s string) string {
	if IsPlainText(s) {
		return s
	}
	return Sanitize(s)
}

// StripTags removes every tag (and script/style content) and returns plain
// text, with entities decoded.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
}
