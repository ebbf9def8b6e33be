// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images selects the embedded images worth keeping, assigns their
// stable identifiers and anchors them to positions on the page. It performs
// no file I/O; the output assembler writes the kept payloads.
package images

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Extractor applies the minimum-size filter to page images.
type Extractor struct {
	minSize int
	logger  *zap.Logger
}

// New creates an Extractor keeping images whose larger side is at least
// minSize pixels.
func New(minSize int, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{minSize: minSize, logger: logger}
}

// ID returns the identifier of the kept image at position k among all
// images on a page.
func ID(page, k int) string {
	return fmt.Sprintf("page%d_img%d", page, k)
}

// filteredID returns the audit identifier of the filtered image at
// position k among all images on a page.
func filteredID(page, k int) string {
	return fmt.Sprintf("page%d_filtered%d", page, k)
}

// placed is a raw image with its paint position.
type placed struct {
	img   pdfdoc.RawImage
	order int
	top   float64
	drawn bool
}

// ExtractPage returns every image on the page, kept and filtered, in paint
// order, and an anchor for each kept image whose payload was read. Kept
// and filtered ids share one 1-based position counter per page.
func (e *Extractor) ExtractPage(rp *pdfdoc.RawPage) ([]types.ImageAsset, []types.ImageAnchor) {
	items := order(rp)

	var (
		assets  []types.ImageAsset
		anchors []types.ImageAnchor
		kept    int
	)
	for seq, it := range items {
		img := it.img
		w, h, format := img.Width, img.Height, img.Format
		if pw, ph, pf, ok := decodeHeader(img.Data); ok {
			if w == 0 || h == 0 {
				w, h = pw, ph
			}
			if format == "" {
				format = pf
			}
		}

		a := types.ImageAsset{
			Page:             rp.Index,
			Seq:              seq + 1,
			Width:            w,
			Height:           h,
			Format:           format,
			ColorSpace:       img.ColorSpace,
			BitsPerComponent: img.BitsPerComponent,
			SizeBytes:        len(img.Data),
		}
		offset := 1.0
		if it.drawn {
			offset = rp.Offset(it.top)
		}

		a.Kept = max(w, h) >= e.minSize
		switch {
		case a.Kept && len(img.Data) == 0:
			a.ID = ID(rp.Index, seq+1)
			a.PayloadMissing = true
			a.Anchor = types.ImageAnchor{ImageID: a.ID, Page: rp.Index, Offset: offset}
			e.logger.Warn("image payload unreadable",
				zap.Int("page", rp.Index),
				zap.String("name", img.Name),
				zap.String("id", a.ID))
		case a.Kept:
			kept++
			a.ID = ID(rp.Index, seq+1)
			a.Data = img.Data
			a.Anchor = types.ImageAnchor{ImageID: a.ID, Page: rp.Index, Order: kept, Offset: offset}
			anchors = append(anchors, a.Anchor)
		default:
			a.FilterReason = types.FilterBelowMinSize
			a.ID = filteredID(rp.Index, seq+1)
			a.Anchor = types.ImageAnchor{Page: rp.Index, Offset: offset}
			e.logger.Debug("image filtered",
				zap.Int("page", rp.Index),
				zap.String("name", img.Name),
				zap.Int("width", w),
				zap.Int("height", h),
				zap.String("reason", a.FilterReason))
		}
		assets = append(assets, a)
	}
	return assets, anchors
}

// order sorts a page's images by their first draw operator. Images that
// are never drawn follow, by object number.
func order(rp *pdfdoc.RawPage) []placed {
	first := map[string]pdfdoc.Draw{}
	for _, d := range rp.Draws {
		if _, ok := first[d.Name]; !ok {
			first[d.Name] = d
		}
	}
	items := make([]placed, len(rp.Images))
	for i, img := range rp.Images {
		items[i] = placed{img: img}
		if d, ok := first[img.Name]; ok && img.Name != "" {
			items[i].order, items[i].top, items[i].drawn = d.Order, d.Top, true
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.drawn != b.drawn {
			return a.drawn
		}
		if a.drawn && a.order != b.order {
			return a.order < b.order
		}
		return a.img.ObjNr < b.img.ObjNr
	})
	return items
}
