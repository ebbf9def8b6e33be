// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Default page size (US Letter) when no MediaBox can be read.
const (
	defaultWidth  = 612.0
	defaultHeight = 792.0
)

// RawPage is the unprocessed content of one page.
type RawPage struct {
	Index    int
	Width    float64
	Height   float64
	Rotation int

	// Runs are the positioned text runs in content-stream order.
	Runs []Run

	// Rects are drawn rectangles, used as table hints.
	Rects []Rect

	// PlainText is the page text from the independent plain-text path.
	PlainText string

	// TextErr is set when neither text path could read the page.
	TextErr error

	Images      []RawImage
	Draws       []Draw
	Annotations []types.Annotation
	Links       []types.Link
	Fonts       []string

	// Errors lists page-local problems that were absorbed.
	Errors []error
}

// HasText reports whether either text path produced non-whitespace text.
func (p *RawPage) HasText() bool {
	return len(p.Runs) > 0 || strings.TrimSpace(p.PlainText) != ""
}

// Offset converts a user-space y coordinate to a vertical position from
// 0.0 at the top edge to 1.0 at the bottom.
func (p *RawPage) Offset(y float64) float64 {
	if p.Height <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, (p.Height-y)/p.Height))
}

// readPage collects the raw content of page n. Faults in individual parts
// are recorded in Errors and never abort the page.
func (d *Document) readPage(n int) *RawPage {
	rp := &RawPage{Index: n, Width: defaultWidth, Height: defaultHeight}
	page := d.reader.Page(n)
	if page.V.IsNull() {
		rp.TextErr = fmt.Errorf("page %d not found in page tree", n)
		rp.Errors = append(rp.Errors, rp.TextErr)
		return rp
	}

	d.guard(rp, "geometry", func() error {
		rp.Width, rp.Height = mediaBoxSize(inherited(page.V, "MediaBox"))
		rp.Rotation = inheritedInt(page.V, "Rotate")
		return nil
	})

	var contentErr, plainErr error
	contentErr = d.guard(rp, "content", func() error {
		c := page.Content()
		rp.Runs = mergeGlyphs(c.Text)
		rp.Rects = toRects(c.Rect)
		return nil
	})
	plainErr = d.guard(rp, "plain text", func() error {
		text, err := page.GetPlainText(nil)
		if err != nil {
			return err
		}
		rp.PlainText = normalizeText(text)
		return nil
	})
	if contentErr != nil && plainErr != nil {
		rp.TextErr = fmt.Errorf("page %d: %w", n, contentErr)
	}

	d.guard(rp, "draws", func() error {
		draws, err := scanDraws(page.V.Key("Contents"))
		rp.Draws = draws
		return err
	})
	d.guard(rp, "annotations", func() error {
		rp.Annotations, rp.Links = readAnnotations(page, n, rp.Runs)
		return nil
	})
	d.guard(rp, "fonts", func() error {
		for _, key := range page.Fonts() {
			if name := stripSubset(page.Font(key).BaseFont()); name != "" {
				rp.Fonts = append(rp.Fonts, name)
			}
		}
		sort.Strings(rp.Fonts)
		return nil
	})
	if d.ctx != nil {
		d.guard(rp, "images", func() error {
			imgs, err := pageImages(d.ctx, n)
			rp.Images = imgs
			return err
		})
	}
	return rp
}

// guard runs fn, converting a panic from the parser into an error. Any
// error is recorded on the page and logged.
func (d *Document) guard(rp *RawPage, part string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", part, r)
		}
		if err != nil {
			rp.Errors = append(rp.Errors, err)
			d.logger.Warn("page-local read failure",
				zap.Int("page", rp.Index),
				zap.String("part", part),
				zap.Error(err))
		}
	}()
	return fn()
}

// mediaBoxSize returns the width and height of a MediaBox array.
func mediaBoxSize(box pdf.Value) (float64, float64) {
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return defaultWidth, defaultHeight
	}
	llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
	urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
	w, h := urx-llx, ury-lly
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	if w == 0 || h == 0 {
		return defaultWidth, defaultHeight
	}
	return w, h
}

// maxTreeDepth bounds walks up the page tree against Parent cycles.
const maxTreeDepth = 32

// inherited looks up an attribute on the page or its ancestors in the page
// tree. It returns the null value when no node sets it.
func inherited(v pdf.Value, key string) pdf.Value {
	for i := 0; i < maxTreeDepth && !v.IsNull(); i++ {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// inheritedInt looks up an integer attribute on the page or its ancestors.
func inheritedInt(v pdf.Value, key string) int {
	if x := inherited(v, key); x.Kind() == pdf.Integer {
		return int(x.Int64())
	}
	return 0
}

// readAnnotations splits a page's annotations into URI links and other
// annotations. Link text is the run text under the link rectangle.
func readAnnotations(page pdf.Page, n int, runs []Run) ([]types.Annotation, []types.Link) {
	annots := page.V.Key("Annots")
	if annots.Kind() != pdf.Array {
		return nil, nil
	}
	var (
		notes []types.Annotation
		links []types.Link
	)
	for i := 0; i < annots.Len(); i++ {
		a := annots.Index(i)
		subtype := a.Key("Subtype").Name()
		switch subtype {
		case "", "Popup", "Widget":
			continue
		case "Link":
			uri := a.Key("A").Key("URI")
			if uri.IsNull() {
				continue
			}
			links = append(links, types.Link{
				Page: n,
				Text: textInRect(runs, a.Key("Rect")),
				URI:  uri.RawString(),
			})
		default:
			notes = append(notes, types.Annotation{
				Page:    n,
				Type:    subtype,
				Content: normalizeText(a.Key("Contents").Text()),
				Author:  normalizeText(a.Key("T").Text()),
			})
		}
	}
	return notes, links
}

// textInRect joins the runs whose origin lies inside a rectangle value.
func textInRect(runs []Run, rect pdf.Value) string {
	if rect.Kind() != pdf.Array || rect.Len() != 4 {
		return ""
	}
	x0, y0 := rect.Index(0).Float64(), rect.Index(1).Float64()
	x1, y1 := rect.Index(2).Float64(), rect.Index(3).Float64()
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	var parts []string
	for _, r := range runs {
		if r.X >= x0-1 && r.X <= x1+1 && r.Y >= y0-1 && r.Y <= y1+1 {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, " ")
}
