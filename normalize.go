package dart

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeMarkup prepares decoded document text for parsing.
//
// Normalizations performed:
// - &nbsp; and U+00A0 → regular spaces (inline XBRL is HTML at heart)
// - Unicode space variants → regular spaces
// - zero-width characters and stray BOMs → removed
// - CRLF / CR → LF
//
// Markup entities such as &amp; are left alone so strict XML parsing still works.
func NormalizeMarkup(text string) string {
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&#160;", " ")

	text = strings.Map(markupRune, text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return text
}

// markupRune maps every Unicode space separator, NBSP and U+3000 included, to a
// plain space and drops format characters such as zero-width spaces and BOMs.
// ASCII passes through.
func markupRune(r rune) rune {
	switch {
	case r < utf8.RuneSelf:
		return r
	case unicode.Is(unicode.Zs, r):
		return ' '
	case unicode.Is(unicode.Cf, r):
		return -1
	}
	return r
}

var collapseSpace = regexp.MustCompile(`\s+`)

// CleanExtractedText collapses whitespace in text pulled out of a parsed node.
func CleanExtractedText(text string) string {
	text = strings.Map(markupRune, text)
	text = collapseSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// normalizeAccountName folds a reported account name to its comparable form:
// NFC composed, lower case, and only letters and digits kept (Hangul syllables
// are letters, so the local script survives).
func normalizeAccountName(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
