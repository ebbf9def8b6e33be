// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Extractor is the layout-aware extraction strategy.
type Extractor struct {
	cfg    types.LayoutConfig
	logger *zap.Logger
}

// New creates an Extractor with the given thresholds.
func New(cfg types.LayoutConfig, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Method identifies the strategy.
func (e *Extractor) Method() types.Method { return types.MethodPrimary }

// Extract classifies every page. A page that cannot be laid out falls back
// locally to a single raw block. The document fails with
// types.ErrExtractionFailed only when the share of such pages exceeds the
// configured threshold.
func (e *Extractor) Extract(ctx context.Context, raw []*pdfdoc.RawPage) ([]types.Page, error) {
	pages := make([]types.Page, 0, len(raw))
	failed := 0
	for _, rp := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := e.ExtractPage(rp)
		if p.FellBack {
			failed++
		}
		pages = append(pages, p)
	}
	if len(raw) > 0 && float64(failed)/float64(len(raw)) > e.cfg.PageFailureThreshold {
		return nil, fmt.Errorf("layout failed on %d of %d pages: %w", failed, len(raw), types.ErrExtractionFailed)
	}
	return pages, nil
}

// ExtractPage classifies one page. Faults are absorbed: the page then
// holds its plain text as one raw block and is marked FellBack.
func (e *Extractor) ExtractPage(rp *pdfdoc.RawPage) (page types.Page) {
	defer func() {
		if r := recover(); r != nil {
			page = e.fallBack(rp, fmt.Errorf("layout analysis: %v", r))
		}
	}()
	if len(rp.Runs) == 0 {
		switch {
		case rp.TextErr != nil:
			return e.fallBack(rp, rp.TextErr)
		case strings.TrimSpace(rp.PlainText) != "":
			return e.fallBack(rp, errors.New("no positioned text"))
		}
		return types.Page{Index: rp.Index}
	}
	return types.Page{Index: rp.Index, Blocks: e.blocks(rp)}
}

func (e *Extractor) fallBack(rp *pdfdoc.RawPage, err error) types.Page {
	e.logger.Warn("layout fell back to raw text",
		zap.Int("page", rp.Index),
		zap.Error(err))
	p := types.Page{Index: rp.Index, FellBack: true}
	if text := strings.TrimSpace(rp.PlainText); text != "" {
		p.Blocks = []types.ContentBlock{types.Raw(text)}
	}
	return p
}

// blocks composes the layout heuristics over one page.
func (e *Extractor) blocks(rp *pdfdoc.RawPage) []types.ContentBlock {
	cfg := e.cfg
	lines := GroupLines(rp.Runs, cfg.LineTolerance)
	levels := HeadingLevels(lines, BodySize(lines), cfg)
	lines = OrderColumns(lines, DetectColumns(lines, rp.Width, cfg))
	tables := GroupTables(lines, rp.Rects, cfg)

	var (
		blocks   []types.ContentBlock
		pending  []Line
		listBase float64
		inList   bool
	)
	add := func(b types.ContentBlock, y float64) {
		b.Offset = rp.Offset(y)
		blocks = append(blocks, b)
		inList = b.Kind == types.BlockListItem
	}
	flush := func() {
		for _, p := range BuildParagraphs(pending, cfg.ParagraphGap) {
			add(types.Paragraph(p.Text), p.Y)
		}
		pending = nil
	}

	ti := 0
	for i := 0; i < len(lines); i++ {
		if ti < len(tables) && i == tables[ti].Start {
			flush()
			t := tables[ti]
			for k, row := range t.Rows {
				add(types.TableRow(row...), lines[t.Start+k].Y)
			}
			i = t.End - 1
			ti++
			continue
		}

		l := lines[i]
		if lvl := levels.Level(l); lvl > 0 {
			flush()
			add(types.Heading(lvl, l.Text()), l.Y)
			continue
		}

		if m, ok := ParseListMarker(l.Text()); ok {
			flush()
			if !inList || l.X < listBase {
				listBase = l.X
			}
			text, last := m.Text, l
			for i+1 < len(lines) && e.continues(l, last, lines[i+1], levels, tables, ti, i+1) {
				i++
				last = lines[i]
				text = joinLines(text, strings.TrimSpace(last.Text()))
			}
			add(types.ListItem(m.Marker, m.Ordered, ListDepth(l.X, listBase, cfg.ListIndentStep), text), l.Y)
			continue
		}

		pending = append(pending, l)
	}
	flush()
	return blocks
}

// continues reports whether next is a wrapped continuation of the list
// item starting at item. It must be indented past the marker, sit close
// below the previous line and not be a marker, heading or table row.
func (e *Extractor) continues(item, prev, next Line, levels Levels, tables []Table, ti, idx int) bool {
	if ti < len(tables) && idx == tables[ti].Start {
		return false
	}
	if levels.Level(next) > 0 {
		return false
	}
	if _, ok := ParseListMarker(next.Text()); ok {
		return false
	}
	size := max(prev.Size, next.Size, 1)
	return next.X > item.X+1 && prev.Y > next.Y && prev.Y-next.Y <= size*e.cfg.ParagraphGap
}
