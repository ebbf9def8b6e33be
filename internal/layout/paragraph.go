// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Paragraph is body text assembled from consecutive lines.
type Paragraph struct {
	Text string

	// Y is the baseline of the first line.
	Y float64
}

// BuildParagraphs joins consecutive lines into paragraphs. A new paragraph
// starts when the baseline distance exceeds gap times the line's font size.
// A hyphen ending a line is removed when the next line continues the word
// in lower case.
func BuildParagraphs(lines []Line, gap float64) []Paragraph {
	var (
		out  []Paragraph
		cur  *Paragraph
		prev Line
	)
	for _, l := range lines {
		text := strings.TrimSpace(l.Text())
		if text == "" {
			continue
		}
		if cur != nil {
			size := max(prev.Size, l.Size, 1)
			if prev.Y-l.Y > size*gap || l.Y > prev.Y {
				out = append(out, *cur)
				cur = nil
			}
		}
		if cur == nil {
			cur = &Paragraph{Text: text, Y: l.Y}
		} else {
			cur.Text = joinLines(cur.Text, text)
		}
		prev = l
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// joinLines appends next to text, de-hyphenating a word split across the
// line break.
func joinLines(text, next string) string {
	if strings.HasSuffix(text, "-") && len(text) > 1 {
		before, _ := utf8.DecodeLastRuneInString(text[:len(text)-1])
		after, _ := utf8.DecodeRuneInString(next)
		if unicode.IsLetter(before) && unicode.IsLower(after) {
			return text[:len(text)-1] + next
		}
	}
	return text + " " + next
}
