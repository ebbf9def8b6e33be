// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raster implements the fallback extraction strategy. It ignores
// document structure and emits each page's text as one reflowed raw block,
// falling back to OCR of the page image for scanned pages.
package raster

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

const (
	// lineTolerance is the baseline difference, in points, within which runs
	// share a line.
	lineTolerance = 2.0

	// paragraphGap is the baseline distance, in multiples of the font size,
	// that separates paragraphs.
	paragraphGap = 1.5
)

// Recognizer reads text from an encoded image.
type Recognizer interface {
	Recognize(image []byte) (string, error)
}

// Extractor is the reflow extraction strategy.
type Extractor struct {
	ocr    Recognizer
	logger *zap.Logger
}

// New creates an Extractor. rec may be nil to disable OCR.
func New(rec Recognizer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{ocr: rec, logger: logger}
}

// Method identifies the strategy.
func (e *Extractor) Method() types.Method { return types.MethodFallback }

// Extract produces one page per raw page. Pages without text carry the
// empty marker. It fails with types.ErrExtractionFailed only when no page
// could be read at all.
func (e *Extractor) Extract(ctx context.Context, raw []*pdfdoc.RawPage) ([]types.Page, error) {
	pages := make([]types.Page, 0, len(raw))
	unreadable := 0
	var first error
	for _, rp := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rp.TextErr != nil {
			unreadable++
			if first == nil {
				first = rp.TextErr
			}
		}
		pages = append(pages, e.ExtractPage(rp))
	}
	if len(raw) > 0 && unreadable == len(raw) {
		return nil, fmt.Errorf("no page text could be read: %w: %w", types.ErrExtractionFailed, first)
	}
	return pages, nil
}

// ExtractPage reflows one page. It never fails.
func (e *Extractor) ExtractPage(rp *pdfdoc.RawPage) types.Page {
	page := types.Page{Index: rp.Index}
	text, y := reflow(rp.Runs)
	offset := rp.Offset(y)
	if text == "" {
		text, offset = plain(rp.PlainText), 0
	}
	if text == "" {
		text = e.recognize(rp)
	}
	if text == "" {
		page.EmptyText = true
		return page
	}
	b := types.Raw(text)
	b.Offset = offset
	page.Blocks = []types.ContentBlock{b}
	return page
}

// recognize runs OCR over the largest image on the page.
func (e *Extractor) recognize(rp *pdfdoc.RawPage) string {
	if e.ocr == nil {
		return ""
	}
	var best *pdfdoc.RawImage
	for i := range rp.Images {
		img := &rp.Images[i]
		if len(img.Data) == 0 {
			continue
		}
		if best == nil || img.Width*img.Height > best.Width*best.Height {
			best = img
		}
	}
	if best == nil {
		return ""
	}
	text, err := e.ocr.Recognize(best.Data)
	if err != nil {
		e.logger.Warn("ocr failed",
			zap.Int("page", rp.Index),
			zap.String("image", best.Name),
			zap.Error(err))
		return ""
	}
	e.logger.Debug("ocr recognized page", zap.Int("page", rp.Index), zap.Int("chars", len(text)))
	return plain(text)
}

// reflow orders runs top to bottom, then left to right, and joins them into
// lines and blank-line separated paragraphs. It also returns the baseline of
// the first line.
func reflow(runs []pdfdoc.Run) (string, float64) {
	if len(runs) == 0 {
		return "", 0
	}
	sorted := make([]pdfdoc.Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines [][]pdfdoc.Run
	for _, r := range sorted {
		if n := len(lines); n > 0 && lines[n-1][0].Y-r.Y <= lineTolerance {
			lines[n-1] = append(lines[n-1], r)
			continue
		}
		lines = append(lines, []pdfdoc.Run{r})
	}

	var b strings.Builder
	for i, line := range lines {
		sort.SliceStable(line, func(a, c int) bool { return line[a].X < line[c].X })
		if i > 0 {
			prev := lines[i-1]
			size := math.Max(math.Max(prev[0].FontSize, line[0].FontSize), 1)
			if prev[0].Y-line[0].Y > paragraphGap*size {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		for j, r := range line {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(r.Text)
		}
	}
	return strings.TrimSpace(b.String()), lines[0][0].Y
}

// plain trims every line of text and drops runs of blank lines down to one.
func plain(text string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
