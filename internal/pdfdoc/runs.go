// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Run is a horizontal stretch of text in one font on one baseline.
// Coordinates are PDF user space: Y grows upward from the bottom edge.
type Run struct {
	Text     string
	X        float64
	Y        float64
	Width    float64
	FontName string
	FontSize float64
	Bold     bool
	Italic   bool
}

// Right returns the x coordinate of the run's right edge.
func (r Run) Right() float64 { return r.X + r.Width }

// Rect is a drawn rectangle in user space, normalized so X0 <= X1 and Y0 <= Y1.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// mergeGlyphs joins the per-glyph output of the content interpreter into
// runs. Glyphs merge while they share font, size and baseline and the
// horizontal gap stays below one em; a gap wider than a sixth of an em
// becomes a space.
func mergeGlyphs(glyphs []pdf.Text) []Run {
	var (
		runs []Run
		cur  *Run
		b    strings.Builder
	)
	flush := func() {
		if cur == nil {
			return
		}
		text := strings.TrimSpace(normalizeText(b.String()))
		if text != "" {
			cur.Text = text
			runs = append(runs, *cur)
		}
		cur = nil
		b.Reset()
	}

	for _, g := range glyphs {
		if g.S == "\n" || g.S == "\r" {
			flush()
			continue
		}
		size := math.Abs(g.FontSize)
		if size == 0 {
			size = 1
		}
		w := g.W
		if w <= 0 {
			w = size * 0.5 * float64(len([]rune(g.S)))
		}

		if cur != nil && g.Font == cur.FontName && math.Abs(size-cur.FontSize) < 0.1 &&
			math.Abs(g.Y-cur.Y) <= size*0.2 {
			gap := g.X - cur.Right()
			if gap >= -size*0.5 && gap <= size {
				if gap > size/6 && g.S != " " && !strings.HasSuffix(b.String(), " ") {
					b.WriteByte(' ')
				}
				b.WriteString(g.S)
				cur.Width = math.Max(cur.Width, g.X+w-cur.X)
				continue
			}
		}

		flush()
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		cur = &Run{
			X:        g.X,
			Y:        g.Y,
			Width:    w,
			FontName: g.Font,
			FontSize: size,
			Bold:     isBoldFont(g.Font),
			Italic:   isItalicFont(g.Font),
		}
		b.WriteString(g.S)
	}
	flush()
	return runs
}

// toRects normalizes interpreter rectangles and drops degenerate ones.
func toRects(in []pdf.Rect) []Rect {
	out := make([]Rect, 0, len(in))
	for _, r := range in {
		x0, x1 := math.Min(r.Min.X, r.Max.X), math.Max(r.Min.X, r.Max.X)
		y0, y1 := math.Min(r.Min.Y, r.Max.Y), math.Max(r.Min.Y, r.Max.Y)
		if x1-x0 <= 0 && y1-y0 <= 0 {
			continue
		}
		out = append(out, Rect{X0: x0, Y0: y0, X1: x1, Y1: y1})
	}
	return out
}
