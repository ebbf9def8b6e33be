// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata folds an extracted Document into its single structured
// Metadata record. Synthesis is pure aggregation and never touches the
// filesystem.
package metadata

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// ErrIncomplete reports a Document that violates a structural invariant.
// It indicates a bug in the pipeline, not a problem with the input.
var ErrIncomplete = errors.New("document incomplete")

// Options carries the run settings recorded alongside the document.
type Options struct {
	MinImageSize  int
	LowYieldChars int
	OutputDir     string
	Version       string
}

// Synthesize builds the Metadata record for doc.
func Synthesize(doc *types.Document, opts Options) (types.Metadata, error) {
	if err := Check(doc, opts.MinImageSize); err != nil {
		return types.Metadata{}, err
	}

	m := types.Metadata{
		Extraction: types.ExtractionInfo{
			SourceFile:     filepath.Base(doc.SourcePath),
			SourcePath:     doc.SourcePath,
			OutputDir:      opts.OutputDir,
			ExtractionDate: doc.ExtractedAt.UTC().Format(time.RFC3339),
			Method:         doc.Method,
			FallbackReason: doc.FallbackReason,
			Forced:         doc.Forced,
			ExtractedPages: pageSpan(doc),
			Version:        opts.Version,
		},
		File: types.FileInfo{
			SizeBytes: doc.SizeBytes,
			SizeHuman: HumanSize(doc.SizeBytes),
			SHA256:    doc.SHA256,
		},
		PDF:            doc.Info,
		TotalPages:     len(doc.Pages),
		SourcePages:    doc.PageCount,
		HasOutline:     doc.HasOutline || len(doc.Outline) > 0,
		HasForms:       doc.HasForms,
		MinImageSize:   opts.MinImageSize,
		Method:         doc.Method,
		FallbackReason: doc.FallbackReason,
		Outline:        doc.Outline,
		Annotations:    doc.Annotations,
		Links:          doc.Links,
		Fonts:          doc.Fonts,
		Warnings:       slices.Clip(doc.Warnings),
		Images:         []types.ImageRecord{},
	}

	keptPerPage := map[int]int{}
	for _, img := range doc.Images {
		rec := types.ImageRecord{
			ID:               img.ID,
			Page:             img.Page,
			Width:            img.Width,
			Height:           img.Height,
			Format:           img.Format,
			ColorSpace:       img.ColorSpace,
			BitsPerComponent: img.BitsPerComponent,
			SizeBytes:        img.SizeBytes,
			Kept:             img.Kept,
			FilterReason:     img.FilterReason,
			PayloadMissing:   img.PayloadMissing,
			Offset:           img.Anchor.Offset,
		}
		if img.HasFile() {
			rec.Filename = img.Filename()
		}
		if img.PayloadMissing {
			m.Warnings = append(m.Warnings, fmt.Sprintf("image %s: payload unreadable, no file written", img.ID))
		}
		if img.Kept {
			m.TotalImages++
			keptPerPage[img.Page]++
		} else {
			m.FilteredImages++
		}
		m.Images = append(m.Images, rec)
	}

	for _, p := range doc.Pages {
		chars := p.CharCount()
		m.TotalChars += chars
		if p.EmptyText || chars == 0 {
			m.EmptyTextPages = append(m.EmptyTextPages, p.Index)
		}
		if p.FellBack {
			m.FallbackPages = append(m.FallbackPages, p.Index)
		}
		info := p.Info
		info.Number = p.Index
		info.CharCount = chars
		info.HasText = chars > 0
		info.ImageCount = keptPerPage[p.Index]
		m.Pages = append(m.Pages, info)
	}

	m.LowTextYield = LowTextYield(m.TotalChars, len(doc.Pages), len(m.EmptyTextPages), opts.LowYieldChars)
	return m, nil
}

// LowTextYield reports whether a document reads like a scan: any page
// without text, or, when threshold is positive, fewer than threshold
// characters per page on average.
func LowTextYield(totalChars, pages, emptyPages, threshold int) bool {
	if pages == 0 {
		return false
	}
	if emptyPages > 0 {
		return true
	}
	return threshold > 0 && totalChars/pages < threshold
}

// Check verifies the structural invariants of doc.
func Check(doc *types.Document, minImageSize int) error {
	switch doc.Method {
	case types.MethodPrimary, types.MethodFallback:
	default:
		return fmt.Errorf("%w: extraction method %q", ErrIncomplete, doc.Method)
	}

	start := doc.Range.Start
	if start == 0 && len(doc.Pages) > 0 {
		start = 1
	}
	if n := doc.Range.Len(); n > 0 && n != len(doc.Pages) {
		return fmt.Errorf("%w: %d pages for range %s", ErrIncomplete, len(doc.Pages), doc.Range)
	}
	for i, p := range doc.Pages {
		if p.Index != start+i {
			return fmt.Errorf("%w: page %d at position %d, want %d", ErrIncomplete, p.Index, i, start+i)
		}
	}

	kept := map[string]types.ImageAsset{}
	for _, img := range doc.Images {
		if !img.Kept {
			if img.FilterReason == "" {
				return fmt.Errorf("%w: filtered image %s has no reason", ErrIncomplete, img.ID)
			}
			continue
		}
		if _, dup := kept[img.ID]; dup {
			return fmt.Errorf("%w: duplicate image id %s", ErrIncomplete, img.ID)
		}
		if max(img.Width, img.Height) < minImageSize {
			return fmt.Errorf("%w: kept image %s is %dx%d, below %d", ErrIncomplete, img.ID, img.Width, img.Height, minImageSize)
		}
		kept[img.ID] = img
	}

	for _, p := range doc.Pages {
		for _, a := range p.Anchors {
			img, ok := kept[a.ImageID]
			if !ok {
				return fmt.Errorf("%w: anchor %s on page %d has no kept image", ErrIncomplete, a.ImageID, p.Index)
			}
			if img.Page != p.Index || a.Page != p.Index {
				return fmt.Errorf("%w: anchor %s on page %d points at page %d", ErrIncomplete, a.ImageID, p.Index, img.Page)
			}
		}
	}
	return nil
}

// pageSpan renders the extracted page range as "START-END".
func pageSpan(doc *types.Document) string {
	if len(doc.Pages) == 0 {
		return doc.Range.String()
	}
	return fmt.Sprintf("%d-%d", doc.Pages[0].Index, doc.Pages[len(doc.Pages)-1].Index)
}

// HumanSize formats a byte count with one decimal and a binary unit.
func HumanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}
