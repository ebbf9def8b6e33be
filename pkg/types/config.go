// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Method identifies an extraction strategy, or the request to choose one.
type Method string

const (
	MethodAuto     Method = "auto"
	MethodPrimary  Method = "primary"
	MethodFallback Method = "fallback"
)

// ParseMethod validates a method name from flags or config.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "", MethodAuto:
		return MethodAuto, nil
	case MethodPrimary, MethodFallback:
		return m, nil
	default:
		return "", fmt.Errorf("unknown method %q (want auto, primary, or fallback)", s)
	}
}

// PageRange is an inclusive 1-based page range. The zero value selects
// every page of the document.
type PageRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// IsAll reports whether the range selects the whole document.
func (r PageRange) IsAll() bool {
	return r.Start == 0 && r.End == 0
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int {
	if r.IsAll() || r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r PageRange) String() string {
	if r.IsAll() {
		return "all"
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Resolve returns the concrete range for a document with pageCount pages.
// It fails with ErrPageRangeInvalid when the bounds fall outside the document.
func (r PageRange) Resolve(pageCount int) (PageRange, error) {
	if r.IsAll() {
		if pageCount < 1 {
			return PageRange{}, fmt.Errorf("document has no pages: %w", ErrPageRangeInvalid)
		}
		return PageRange{Start: 1, End: pageCount}, nil
	}
	if r.Start < 1 || r.End < r.Start {
		return PageRange{}, fmt.Errorf("range %s is malformed: %w", r, ErrPageRangeInvalid)
	}
	if r.End > pageCount {
		return PageRange{}, fmt.Errorf("range %s exceeds page count %d: %w", r, pageCount, ErrPageRangeInvalid)
	}
	return r, nil
}

// ParsePageRange parses "START-END" or a single page "N". An empty string
// yields the zero range (all pages).
func ParsePageRange(s string) (PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PageRange{}, nil
	}
	startStr, endStr, found := strings.Cut(s, "-")
	if !found {
		endStr = startStr
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return PageRange{}, fmt.Errorf("parsing page range %q: %w", s, ErrPageRangeInvalid)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return PageRange{}, fmt.Errorf("parsing page range %q: %w", s, ErrPageRangeInvalid)
	}
	if start < 1 || end < start {
		return PageRange{}, fmt.Errorf("page range %q is malformed: %w", s, ErrPageRangeInvalid)
	}
	return PageRange{Start: start, End: end}, nil
}

// LayoutConfig holds the tunable thresholds of the layout heuristics.
// All distances are in PDF points.
type LayoutConfig struct {
	// LineTolerance is the maximum baseline difference for runs on one line.
	LineTolerance float64 `json:"line_tolerance" yaml:"line_tolerance"`

	// HeadingRatio is the minimum font size ratio over body text for a heading.
	HeadingRatio float64 `json:"heading_ratio" yaml:"heading_ratio"`

	// MaxHeadingDepth clamps the number of heading levels (default 6).
	MaxHeadingDepth int `json:"max_heading_depth" yaml:"max_heading_depth"`

	// MaxHeadingWords rejects long lines as headings.
	MaxHeadingWords int `json:"max_heading_words" yaml:"max_heading_words"`

	// ColumnMinGap is the minimum horizontal gutter width between columns.
	ColumnMinGap float64 `json:"column_min_gap" yaml:"column_min_gap"`

	// ColumnMinRows is the minimum number of lines that must show the gutter.
	ColumnMinRows int `json:"column_min_rows" yaml:"column_min_rows"`

	// ColumnRowShare is the minimum share of lines that must show the gutter.
	ColumnRowShare float64 `json:"column_row_share" yaml:"column_row_share"`

	// ColumnMaxCross is the maximum share of lines allowed to cross the gutter
	// before the geometry is considered ambiguous.
	ColumnMaxCross float64 `json:"column_max_cross" yaml:"column_max_cross"`

	// TableAlignTolerance is the maximum drift of cell left edges between rows.
	TableAlignTolerance float64 `json:"table_align_tolerance" yaml:"table_align_tolerance"`

	// TableCellGap is the minimum gap between runs that separates two cells.
	TableCellGap float64 `json:"table_cell_gap" yaml:"table_cell_gap"`

	// ListIndentStep is the indentation that adds one level of list nesting.
	ListIndentStep float64 `json:"list_indent_step" yaml:"list_indent_step"`

	// ParagraphGap is the line-gap multiple that starts a new paragraph.
	ParagraphGap float64 `json:"paragraph_gap" yaml:"paragraph_gap"`

	// PageFailureThreshold is the share of failed pages above which layout
	// extraction fails for the whole document.
	PageFailureThreshold float64 `json:"page_failure_threshold" yaml:"page_failure_threshold"`
}

// DefaultLayoutConfig returns the thresholds used when none are configured.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		LineTolerance:        3,
		HeadingRatio:         1.15,
		MaxHeadingDepth:      6,
		MaxHeadingWords:      20,
		ColumnMinGap:         18,
		ColumnMinRows:        3,
		ColumnRowShare:       0.25,
		ColumnMaxCross:       0.2,
		TableAlignTolerance:  4,
		TableCellGap:         14,
		ListIndentStep:       12,
		ParagraphGap:         1.6,
		PageFailureThreshold: 0.5,
	}
}

// OCRConfig controls optical character recognition for pages without text.
type OCRConfig struct {
	// Enabled turns OCR on; it only has effect in builds with the ocr tag.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Language is the tesseract language code (default "eng").
	Language string `json:"language" yaml:"language"`
}

// ExtractionConfig is the immutable configuration threaded through one
// extraction run.
type ExtractionConfig struct {
	// Pages restricts extraction to an inclusive page range.
	Pages PageRange `json:"pages" yaml:"pages"`

	// Method forces a strategy or leaves the choice to the selector.
	Method Method `json:"method" yaml:"method"`

	// MinImageSize is the pixel threshold on max(width, height) (default
	// 10). Zero keeps every image; a negative value selects the default.
	MinImageSize int `json:"min_image_size" yaml:"min_image_size"`

	// FallbackMinChars makes auto mode also try the fallback when the primary
	// output has fewer characters. Zero disables the comparison.
	FallbackMinChars int `json:"fallback_min_chars" yaml:"fallback_min_chars"`

	// LowYieldChars is the average characters per page below which the
	// document is also flagged as low text yield. Zero disables the
	// average check; pages without text always set the flag.
	LowYieldChars int `json:"low_yield_chars" yaml:"low_yield_chars"`

	Layout LayoutConfig `json:"layout" yaml:"layout"`
	OCR    OCRConfig    `json:"ocr" yaml:"ocr"`
}

// DefaultExtractionConfig returns a configuration with every default applied.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Method:       MethodAuto,
		MinImageSize: 10,
		Layout:       DefaultLayoutConfig(),
		OCR:          OCRConfig{Language: "eng"},
	}
}

// WithDefaults fills unset fields from DefaultExtractionConfig. Numeric
// fields where zero is meaningful are unset only when negative.
func (c ExtractionConfig) WithDefaults() ExtractionConfig {
	d := DefaultExtractionConfig()
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.MinImageSize < 0 {
		c.MinImageSize = d.MinImageSize
	}
	if c.LowYieldChars < 0 {
		c.LowYieldChars = d.LowYieldChars
	}
	if c.OCR.Language == "" {
		c.OCR.Language = d.OCR.Language
	}
	l, dl := &c.Layout, d.Layout
	if l.LineTolerance <= 0 {
		l.LineTolerance = dl.LineTolerance
	}
	if l.HeadingRatio <= 1 {
		l.HeadingRatio = dl.HeadingRatio
	}
	if l.MaxHeadingDepth <= 0 || l.MaxHeadingDepth > 6 {
		l.MaxHeadingDepth = dl.MaxHeadingDepth
	}
	if l.MaxHeadingWords <= 0 {
		l.MaxHeadingWords = dl.MaxHeadingWords
	}
	if l.ColumnMinGap <= 0 {
		l.ColumnMinGap = dl.ColumnMinGap
	}
	if l.ColumnMinRows <= 0 {
		l.ColumnMinRows = dl.ColumnMinRows
	}
	if l.ColumnRowShare <= 0 {
		l.ColumnRowShare = dl.ColumnRowShare
	}
	if l.ColumnMaxCross <= 0 {
		l.ColumnMaxCross = dl.ColumnMaxCross
	}
	if l.TableAlignTolerance <= 0 {
		l.TableAlignTolerance = dl.TableAlignTolerance
	}
	if l.TableCellGap <= 0 {
		l.TableCellGap = dl.TableCellGap
	}
	if l.ListIndentStep <= 0 {
		l.ListIndentStep = dl.ListIndentStep
	}
	if l.ParagraphGap <= 0 {
		l.ParagraphGap = dl.ParagraphGap
	}
	if l.PageFailureThreshold <= 0 || l.PageFailureThreshold > 1 {
		l.PageFailureThreshold = dl.PageFailureThreshold
	}
	return c
}

// LedgerConfig holds settings for the run history database.
type LedgerConfig struct {
	// Enabled records every run in the ledger.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the sqlite database file.
	Path string `json:"path" yaml:"path"`
}
