// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout implements the primary, layout-aware extraction strategy.
// It turns the positioned text runs of a page into headings, paragraphs,
// list items and table rows, in column reading order.
//
// The heuristics are pure functions over lines and runs so that each can be
// tested without a document. Extractor composes them per page.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
)

// Line is a set of runs sharing a baseline, sorted left to right.
type Line struct {
	Runs []pdfdoc.Run

	// Y is the baseline in user space (grows upward).
	Y float64

	X     float64
	Right float64

	// Size is the font size covering the most characters on the line.
	Size float64

	// Bold is true when every run on the line is set in a bold face.
	Bold bool
}

// Text joins the line's runs with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Runs))
	for _, r := range l.Runs {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, " ")
}

// Words returns the number of whitespace-separated words on the line.
func (l Line) Words() int {
	return len(strings.Fields(l.Text()))
}

// newLine computes the derived fields of a line from its runs.
func newLine(runs []pdfdoc.Run) Line {
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })
	l := Line{Runs: runs, X: math.Inf(1), Right: math.Inf(-1), Bold: true}
	weight := map[float64]int{}
	var ySum float64
	for _, r := range runs {
		l.X = math.Min(l.X, r.X)
		l.Right = math.Max(l.Right, r.Right())
		ySum += r.Y
		weight[roundSize(r.FontSize)] += len([]rune(r.Text))
		if !r.Bold {
			l.Bold = false
		}
	}
	l.Y = ySum / float64(len(runs))
	l.Size = dominant(weight)
	return l
}

// GroupLines clusters runs into lines whose baselines differ by at most tol
// points. Lines are returned top to bottom, runs left to right.
func GroupLines(runs []pdfdoc.Run, tol float64) []Line {
	if len(runs) == 0 {
		return nil
	}
	sorted := make([]pdfdoc.Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var (
		lines []Line
		group []pdfdoc.Run
		base  float64
	)
	for _, r := range sorted {
		if len(group) > 0 && math.Abs(base-r.Y) > tol {
			lines = append(lines, newLine(group))
			group = nil
		}
		if len(group) == 0 {
			base = r.Y
		}
		group = append(group, r)
	}
	if len(group) > 0 {
		lines = append(lines, newLine(group))
	}
	return lines
}

// roundSize buckets font sizes to half points.
func roundSize(s float64) float64 {
	return math.Round(s*2) / 2
}

// dominant returns the key with the largest weight, preferring the smaller
// key on ties.
func dominant(weight map[float64]int) float64 {
	best, bestW := 0.0, -1
	for k, w := range weight {
		if w > bestW || (w == bestW && k < best) {
			best, bestW = k, w
		}
	}
	return best
}
