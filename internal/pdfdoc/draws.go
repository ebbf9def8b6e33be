// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"fmt"
	"math"

	"github.com/ledongthuc/pdf"
)

// Draw records one "Do" operator painting an XObject on the page.
type Draw struct {
	// Name is the XObject resource name without the leading slash.
	Name string

	// Order is the 0-based position of the operator in the content stream.
	Order int

	// Top is the y coordinate of the painted unit square's upper edge.
	Top float64
}

// matrix is a PDF affine transform [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n (apply m, then n).
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// top returns the highest y of the unit square mapped through m.
func (m matrix) top() float64 {
	ys := []float64{m[5], m[3] + m[5], m[1] + m[5], m[1] + m[3] + m[5]}
	t := ys[0]
	for _, y := range ys[1:] {
		t = math.Max(t, y)
	}
	return t
}

// drawTracker follows q/Q/cm to know the transform at each Do.
type drawTracker struct {
	ctm   matrix
	stack []matrix
	draws []Draw
}

func newDrawTracker() *drawTracker {
	return &drawTracker{ctm: identity}
}

func (t *drawTracker) op(op string, args []pdf.Value) {
	switch op {
	case "q":
		t.stack = append(t.stack, t.ctm)
	case "Q":
		if n := len(t.stack); n > 0 {
			t.ctm = t.stack[n-1]
			t.stack = t.stack[:n-1]
		}
	case "cm":
		if len(args) != 6 {
			return
		}
		var m matrix
		for i := range m {
			m[i] = args[i].Float64()
		}
		t.ctm = m.mul(t.ctm)
	case "Do":
		if len(args) != 1 || args[0].Kind() != pdf.Name {
			return
		}
		t.draws = append(t.draws, Draw{
			Name:  args[0].Name(),
			Order: len(t.draws),
			Top:   t.ctm.top(),
		})
	}
}

// scanDraws interprets a page content stream and returns its Do operators
// in paint order. A malformed stream yields the draws seen before the fault.
func scanDraws(contents pdf.Value) (draws []Draw, err error) {
	t := newDrawTracker()
	defer func() {
		if r := recover(); r != nil {
			draws = t.draws
			err = fmt.Errorf("scanning content stream: %v", r)
		}
	}()
	if contents.IsNull() {
		return nil, nil
	}
	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		t.op(op, args)
	})
	return t.draws, nil
}
