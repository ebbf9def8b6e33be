// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy chooses between the layout and the reflow extractors.
// The choice is an explicit state machine whose transitions are recorded
// so that every decision can be inspected after the fact.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// State is a state of the selection machine.
type State int

const (
	NotStarted State = iota
	PrimaryAttempted
	FallbackAttempted
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case PrimaryAttempted:
		return "primary_attempted"
	case FallbackAttempted:
		return "fallback_attempted"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transition is one recorded step of the machine.
type Transition struct {
	From   State
	To     State
	Reason string
}

// Trace is the ordered list of transitions of one selection.
type Trace []Transition

// Final returns the state the machine ended in.
func (t Trace) Final() State {
	if len(t) == 0 {
		return NotStarted
	}
	return t[len(t)-1].To
}

// Extractor is one extraction strategy.
type Extractor interface {
	Method() types.Method
	Extract(ctx context.Context, pages []*pdfdoc.RawPage) ([]types.Page, error)
}

// Decision records which strategy produced the document and why.
type Decision struct {
	Method         types.Method
	FallbackReason string
	Forced         bool

	// Attempted lists the strategies that ran, in order.
	Attempted []types.Method
}

// Result is the outcome of a selection.
type Result struct {
	Pages    []types.Page
	Decision Decision
	Trace    Trace
}

// Selector runs the state machine over a primary and a fallback extractor.
type Selector struct {
	primary  Extractor
	fallback Extractor
	minChars int
	logger   *zap.Logger
}

// New creates a Selector. When minChars is positive, auto mode also runs
// the fallback for primary output with fewer characters and keeps it if it
// yields more.
func New(primary, fallback Extractor, minChars int, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{primary: primary, fallback: fallback, minChars: minChars, logger: logger}
}

// machine accumulates transitions and attempted strategies.
type machine struct {
	state     State
	trace     Trace
	attempted []types.Method
	logger    *zap.Logger
}

func (m *machine) to(s State, reason string) {
	m.trace = append(m.trace, Transition{From: m.state, To: s, Reason: reason})
	m.logger.Debug("strategy transition",
		zap.Stringer("from", m.state),
		zap.Stringer("to", s),
		zap.String("reason", reason))
	m.state = s
}

func (m *machine) run(ctx context.Context, e Extractor, pages []*pdfdoc.RawPage) ([]types.Page, error) {
	m.attempted = append(m.attempted, e.Method())
	return e.Extract(ctx, pages)
}

// Select extracts pages with the strategy requested by method. The
// returned error wraps types.ErrExtractionFailed when no strategy
// succeeded; the Result still carries the trace and attempted strategies.
func (s *Selector) Select(ctx context.Context, method types.Method, pages []*pdfdoc.RawPage) (Result, error) {
	m := &machine{logger: s.logger}
	switch method {
	case types.MethodPrimary:
		return s.forced(ctx, m, s.primary, PrimaryAttempted, pages)
	case types.MethodFallback:
		return s.forced(ctx, m, s.fallback, FallbackAttempted, pages)
	case types.MethodAuto, "":
		return s.auto(ctx, m, pages)
	}
	return Result{}, fmt.Errorf("selecting strategy: unknown method %q", method)
}

// forced runs exactly one extractor.
func (s *Selector) forced(ctx context.Context, m *machine, e Extractor, attempt State, pages []*pdfdoc.RawPage) (Result, error) {
	m.to(attempt, "forced")
	out, err := m.run(ctx, e, pages)
	d := Decision{Method: e.Method(), Forced: true}
	if e.Method() == types.MethodFallback {
		d.FallbackReason = types.ReasonForced
	}
	return s.finish(m, out, d, err)
}

func (s *Selector) auto(ctx context.Context, m *machine, pages []*pdfdoc.RawPage) (Result, error) {
	m.to(PrimaryAttempted, "auto")
	primary, perr := m.run(ctx, s.primary, pages)
	if isCancel(perr) {
		return s.finish(m, nil, Decision{}, perr)
	}

	chars := charCount(primary)
	if perr == nil && chars > 0 {
		if s.minChars <= 0 || chars >= s.minChars {
			return s.finish(m, primary, Decision{Method: types.MethodPrimary}, nil)
		}
		m.to(FallbackAttempted, types.ReasonLowYield)
		fb, ferr := m.run(ctx, s.fallback, pages)
		if isCancel(ferr) {
			return s.finish(m, nil, Decision{}, ferr)
		}
		if ferr == nil && charCount(fb) > chars {
			return s.finish(m, fb, Decision{Method: types.MethodFallback, FallbackReason: types.ReasonLowYield}, nil)
		}
		return s.finish(m, primary, Decision{Method: types.MethodPrimary}, nil)
	}

	reason := types.ReasonEmptyOutput
	if perr != nil {
		reason = types.ReasonPrimaryFailed
		s.logger.Info("primary extraction failed, falling back", zap.Error(perr))
	}
	m.to(FallbackAttempted, reason)
	fb, ferr := m.run(ctx, s.fallback, pages)
	switch {
	case ferr == nil:
		return s.finish(m, fb, Decision{Method: types.MethodFallback, FallbackReason: reason}, nil)
	case isCancel(ferr):
		return s.finish(m, nil, Decision{}, ferr)
	case perr == nil:
		s.logger.Warn("fallback extraction failed, keeping empty primary output", zap.Error(ferr))
		return s.finish(m, primary, Decision{Method: types.MethodPrimary}, nil)
	}
	return s.finish(m, nil, Decision{}, fmt.Errorf("%w (fallback: %v)", perr, ferr))
}

// finish records the final transition and builds the Result.
func (s *Selector) finish(m *machine, pages []types.Page, d Decision, err error) (Result, error) {
	d.Attempted = m.attempted
	if err != nil {
		m.to(Failed, err.Error())
		if !errors.Is(err, types.ErrExtractionFailed) && !isCancel(err) {
			err = fmt.Errorf("%w: %w", types.ErrExtractionFailed, err)
		}
		return Result{Decision: d, Trace: m.trace}, err
	}
	m.to(Succeeded, string(d.Method))
	return Result{Pages: pages, Decision: d, Trace: m.trace}, nil
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func charCount(pages []types.Page) int {
	n := 0
	for _, p := range pages {
		n += p.CharCount()
	}
	return n
}
