// Package htmlutils provides text helpers for scraped HTML and Telegram messages.
//
// The package handles:
//   - Tag stripping for feed descriptions and listing snippets
//   - Whitespace normalization of extracted article text
//   - UTF-16 aware truncation (Telegram's native length unit)
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
)

const ellipsis = "…"

var (
	tagRegex        = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)
	commentRegex    = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBreakRegex = regexp.MustCompile(`(?i)<(br|/p|/div|/li|/h[1-6])\s*/?>`)
	spaceRegex      = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// StripHTMLTags removes all HTML tags from text, keeping only the content.
// Block-level closings become line breaks so paragraphs stay apart.
func StripHTMLTags(text string) string {
	result := commentRegex.ReplaceAllString(text, "")
	result = blockBreakRegex.ReplaceAllString(result, "\n")
	result = tagRegex.ReplaceAllString(result, "")
	result = html.UnescapeString(result)

	return CollapseWhitespace(result)
}

// CollapseWhitespace squeezes runs of spaces, trims every line and keeps at most
// one blank line between paragraphs.
func CollapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	text = strings.Join(lines, "\n")
	text = blankLinesRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// SingleLine joins all whitespace-separated words of text with single spaces.
func SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// EscapeText escapes text for Telegram's HTML parse mode.
func EscapeText(text string) string {
	return html.EscapeString(text)
}

// TruncateUTF16 shortens s so that it fits in maxUnits UTF-16 code units,
// appending an ellipsis when something was cut.
func TruncateUTF16(s string, maxUnits int) string {
	if maxUnits <= 0 {
		return ""
	}

	if utf16Len(s) <= maxUnits {
		return s
	}

	return strings.TrimSpace(utf16Slice(s, maxUnits-1)) + ellipsis
}

// utf16Len returns the number of UTF-16 code units needed to encode the string.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// utf16Slice returns the longest prefix of s that fits in maxUnits code units.
func utf16Slice(s string, maxUnits int) string {
	units := 0

	for i, r := range s {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2 // surrogate pair
		}

		if units+runeUnits > maxUnits {
			return s[:i]
		}

		units += runeUnits
	}

	return s
}
