// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// bullets are the unordered list markers recognised at the start of a line.
var bullets = []rune{
	'•', // bullet
	'◦', // white bullet
	'▪', // small black square
	'‣', // triangular bullet
	'–', // en dash
	'-',
	'*',
}

var ordinalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{1,3}[.)])\s+(\S.*)$`),
	regexp.MustCompile(`^([a-zA-Z][.)])\s+(\S.*)$`),
	regexp.MustCompile(`^([ivxlcdmIVXLCDM]{1,6}[.)])\s+(\S.*)$`),
	regexp.MustCompile(`^(\((?:\d{1,3}|[a-zA-Z]|[ivxlcdm]{1,6})\))\s+(\S.*)$`),
}

// Marker is a parsed list item prefix.
type Marker struct {
	Marker  string
	Ordered bool

	// Text is the item text after the marker.
	Text string
}

// ParseListMarker recognises a bullet or ordinal marker at the start of
// text. The marker must be followed by whitespace and item text.
func ParseListMarker(text string) (Marker, bool) {
	text = strings.TrimSpace(text)
	if r, size := utf8.DecodeRuneInString(text); size > 0 {
		for _, b := range bullets {
			if r != b {
				continue
			}
			rest := text[size:]
			if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
				break
			}
			if rest = strings.TrimSpace(rest); rest != "" {
				return Marker{Marker: string(r), Text: rest}, true
			}
		}
	}
	for _, re := range ordinalPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return Marker{Marker: m[1], Ordered: true, Text: m[2]}, true
		}
	}
	return Marker{}, false
}

// ListDepth converts the indentation of a marker at x, relative to the
// leftmost marker at base, into a nesting depth of step points per level.
func ListDepth(x, base, step float64) int {
	if step <= 0 || x <= base {
		return 0
	}
	return int(math.Floor((x-base)/step + 0.5))
}
