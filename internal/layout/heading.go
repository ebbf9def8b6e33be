// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"sort"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// boldHeadingLevel is the level given to short bold body-size lines on
// pages without larger type.
const boldHeadingLevel = 2

// BodySize returns the font size that covers the most characters.
func BodySize(lines []Line) float64 {
	weight := map[float64]int{}
	for _, l := range lines {
		for _, r := range l.Runs {
			weight[roundSize(r.FontSize)] += len([]rune(r.Text))
		}
	}
	if len(weight) == 0 {
		return 0
	}
	return dominant(weight)
}

// Levels maps heading font sizes to heading levels.
type Levels struct {
	bySize    map[float64]int
	boldLevel int
	maxWords  int
	body      float64
}

// HeadingLevels ranks the distinct line sizes that reach the heading ratio
// over body, largest first, as levels 1, 2, and so on, clamped to the
// configured depth.
func HeadingLevels(lines []Line, body float64, cfg types.LayoutConfig) Levels {
	lv := Levels{bySize: map[float64]int{}, maxWords: cfg.MaxHeadingWords, body: body}
	if body <= 0 {
		return lv
	}
	seen := map[float64]bool{}
	var sizes []float64
	for _, l := range lines {
		if l.Size >= body*cfg.HeadingRatio && !seen[l.Size] && l.Words() <= cfg.MaxHeadingWords {
			seen[l.Size] = true
			sizes = append(sizes, l.Size)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	for i, s := range sizes {
		lv.bySize[s] = min(i+1, cfg.MaxHeadingDepth)
	}
	if len(sizes) == 0 {
		lv.boldLevel = min(boldHeadingLevel, cfg.MaxHeadingDepth)
	}
	return lv
}

// Level returns the heading level of l, or 0 when l is not a heading.
func (lv Levels) Level(l Line) int {
	if l.Words() == 0 || l.Words() > lv.maxWords {
		return 0
	}
	if n, ok := lv.bySize[l.Size]; ok {
		return n
	}
	if lv.boldLevel > 0 && l.Bold && l.Size == roundSize(lv.body) && !endsSentence(l.Text()) {
		return lv.boldLevel
	}
	return 0
}

func endsSentence(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', ',', ';':
		return true
	}
	return false
}
