// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"math"
	"sort"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

const (
	// gapBucket is the width of the gutter histogram buckets in points.
	gapBucket = 20.0

	// minColumnFill is the share of a column's width its text segments must
	// cover on average. Prose fills its column; table cells usually do not.
	minColumnFill = 0.6
)

// Column is a vertical band of the page.
type Column struct {
	Left  float64
	Right float64
}

func (c Column) contains(x float64) bool {
	return x >= c.Left && x < c.Right
}

// segment is a horizontal stretch of a line without a gutter-sized gap.
type segment struct {
	x0, x1 float64
}

// segments splits a line at gaps of at least minGap points.
func segments(l Line, minGap float64) []segment {
	var out []segment
	for i, r := range l.Runs {
		if i == 0 || r.X-out[len(out)-1].x1 >= minGap {
			out = append(out, segment{x0: r.X, x1: r.Right()})
			continue
		}
		out[len(out)-1].x1 = math.Max(out[len(out)-1].x1, r.Right())
	}
	return out
}

// DetectColumns finds vertical gutters shared by many lines using a gap
// histogram. A gutter is accepted when enough lines show a gap there and
// few lines cross it. When nothing qualifies, or the geometry is
// ambiguous, it returns a single column spanning the page.
func DetectColumns(lines []Line, pageWidth float64, cfg types.LayoutConfig) []Column {
	single := []Column{{Left: math.Inf(-1), Right: math.Inf(1)}}
	if len(lines) < cfg.ColumnMinRows {
		return single
	}

	type bucket struct {
		count int
		sum   float64
	}
	hist := map[int]*bucket{}
	for _, l := range lines {
		segs := segments(l, cfg.ColumnMinGap)
		for i := 0; i+1 < len(segs); i++ {
			center := (segs[i].x1 + segs[i+1].x0) / 2
			k := int(center / gapBucket)
			if hist[k] == nil {
				hist[k] = &bucket{}
			}
			hist[k].count++
			hist[k].sum += center
		}
	}

	need := max(cfg.ColumnMinRows, int(math.Ceil(float64(len(lines))*cfg.ColumnRowShare)))
	keys := make([]int, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	var gutters []float64
	for _, k := range keys {
		b := hist[k]
		if b.count < need {
			continue
		}
		g := b.sum / float64(b.count)
		if n := len(gutters); n > 0 && g-gutters[n-1] <= gapBucket*2 {
			continue
		}
		gutters = append(gutters, g)
	}
	if len(gutters) == 0 {
		return single
	}

	for _, g := range gutters {
		crossing := 0
		for _, l := range lines {
			for _, r := range l.Runs {
				if r.X < g-1 && r.Right() > g+1 {
					crossing++
					break
				}
			}
		}
		if float64(crossing) > float64(len(lines))*cfg.ColumnMaxCross {
			return single
		}
	}

	cols := make([]Column, 0, len(gutters)+1)
	left := 0.0
	for _, g := range gutters {
		cols = append(cols, Column{Left: left, Right: g})
		left = g
	}
	cols = append(cols, Column{Left: left, Right: math.Max(pageWidth, left+1)})
	cols[0].Left = math.Inf(-1)
	cols[len(cols)-1].Right = math.Inf(1)

	if !filled(lines, cols, cfg.ColumnMinGap) {
		return single
	}
	return cols
}

// filled reports whether the text of every column covers enough of the
// column's extent to read as running prose.
func filled(lines []Line, cols []Column, minGap float64) bool {
	for _, c := range cols {
		x0, x1 := math.Inf(1), math.Inf(-1)
		var total float64
		n := 0
		for _, l := range lines {
			for _, s := range segments(l, minGap) {
				if !c.contains((s.x0 + s.x1) / 2) {
					continue
				}
				x0, x1 = math.Min(x0, s.x0), math.Max(x1, s.x1)
				total += s.x1 - s.x0
				n++
			}
		}
		if n == 0 || x1 <= x0 {
			return false
		}
		if total/float64(n) < (x1-x0)*minColumnFill {
			return false
		}
	}
	return true
}

// OrderColumns splits lines at the column boundaries and returns them in
// column-major reading order: the whole first column top to bottom, then
// the next. Runs are assigned by their horizontal center.
func OrderColumns(lines []Line, cols []Column) []Line {
	if len(cols) <= 1 {
		return lines
	}
	var out []Line
	for _, c := range cols {
		for _, l := range lines {
			var runs []pdfdoc.Run
			for _, r := range l.Runs {
				if c.contains(r.X + r.Width/2) {
					runs = append(runs, r)
				}
			}
			if len(runs) > 0 {
				out = append(out, newLine(runs))
			}
		}
	}
	return out
}
