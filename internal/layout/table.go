// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Cell is a group of runs on one line separated from its neighbours by a
// cell gap or a ruling.
type Cell struct {
	X     float64
	Right float64
	Text  string
}

// Table is a run of consecutive lines, by index into the line slice, that
// share an aligned cell structure.
type Table struct {
	Start int
	End   int // exclusive
	Rows  [][]string
}

// rulings returns the x positions of vertical edges drawn across baseline y.
func rulings(rects []pdfdoc.Rect, y float64) []float64 {
	var xs []float64
	for _, r := range rects {
		if y < r.Y0-2 || y > r.Y1+2 {
			continue
		}
		xs = append(xs, r.X0, r.X1)
	}
	sort.Float64s(xs)
	return xs
}

// Cells splits a line into cells at gaps of at least gap points, or at a
// drawn vertical edge lying between two runs.
func Cells(l Line, rects []pdfdoc.Rect, gap float64) []Cell {
	edges := rulings(rects, l.Y)
	var (
		cells []Cell
		parts []string
	)
	flush := func() {
		if len(cells) > 0 {
			cells[len(cells)-1].Text = strings.Join(parts, " ")
		}
		parts = nil
	}
	for i, r := range l.Runs {
		split := i == 0
		if !split {
			prev := cells[len(cells)-1].Right
			split = r.X-prev >= gap || edgeBetween(edges, prev, r.X)
		}
		if split {
			flush()
			cells = append(cells, Cell{X: r.X, Right: r.Right()})
		}
		cells[len(cells)-1].Right = math.Max(cells[len(cells)-1].Right, r.Right())
		parts = append(parts, r.Text)
	}
	flush()
	return cells
}

func edgeBetween(edges []float64, x0, x1 float64) bool {
	if x1 <= x0 {
		return false
	}
	for _, e := range edges {
		if e > x0-0.5 && e < x1+0.5 {
			return true
		}
	}
	return false
}

// aligned reports whether two rows have the same number of cells and each
// pair of cells lines up on its left edge, right edge or center.
func aligned(a, b []Cell, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		left := math.Abs(a[i].X - b[i].X)
		right := math.Abs(a[i].Right - b[i].Right)
		center := math.Abs((a[i].X+a[i].Right)/2 - (b[i].X+b[i].Right)/2)
		if left > tol && right > tol && center > tol {
			return false
		}
	}
	return true
}

// GroupTables finds runs of at least two consecutive lines that split into
// two or more aligned cells.
func GroupTables(lines []Line, rects []pdfdoc.Rect, cfg types.LayoutConfig) []Table {
	cells := make([][]Cell, len(lines))
	for i, l := range lines {
		cells[i] = Cells(l, rects, cfg.TableCellGap)
	}

	var tables []Table
	for i := 0; i < len(lines); {
		if len(cells[i]) < 2 {
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && aligned(cells[j-1], cells[j], cfg.TableAlignTolerance) {
			j++
		}
		if j-i < 2 {
			i++
			continue
		}
		t := Table{Start: i, End: j}
		for k := i; k < j; k++ {
			row := make([]string, len(cells[k]))
			for c, cell := range cells[k] {
				row[c] = cell.Text
			}
			t.Rows = append(t.Rows, row)
		}
		tables = append(tables, t)
		i = j
	}
	return tables
}
