// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
	"unicode"
)

// BlockKind discriminates the ContentBlock union.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockListItem  BlockKind = "list_item"
	BlockTableRow  BlockKind = "table_row"
	BlockRaw       BlockKind = "raw"
)

// ContentBlock is one structurally classified unit of page content.
// Which fields are meaningful depends on Kind:
//
//	heading    Level, Text
//	paragraph  Text
//	list_item  Marker, Ordered, Depth, Text
//	table_row  Cells
//	raw        Text
type ContentBlock struct {
	Kind    BlockKind `json:"kind" yaml:"kind"`
	Level   int       `json:"level,omitempty" yaml:"level,omitempty"`
	Text    string    `json:"text,omitempty" yaml:"text,omitempty"`
	Marker  string    `json:"marker,omitempty" yaml:"marker,omitempty"`
	Ordered bool      `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Depth   int       `json:"depth,omitempty" yaml:"depth,omitempty"`
	Cells   []string  `json:"cells,omitempty" yaml:"cells,omitempty"`

	// Offset is the approximate vertical position of the block on its page,
	// 0.0 at the top edge and 1.0 at the bottom.
	Offset float64 `json:"-" yaml:"-"`
}

// Heading returns a heading block.
func Heading(level int, text string) ContentBlock {
	return ContentBlock{Kind: BlockHeading, Level: level, Text: text}
}

// Paragraph returns a paragraph block.
func Paragraph(text string) ContentBlock {
	return ContentBlock{Kind: BlockParagraph, Text: text}
}

// ListItem returns a list item block.
func ListItem(marker string, ordered bool, depth int, text string) ContentBlock {
	return ContentBlock{Kind: BlockListItem, Marker: marker, Ordered: ordered, Depth: depth, Text: text}
}

// TableRow returns a table row block.
func TableRow(cells ...string) ContentBlock {
	return ContentBlock{Kind: BlockTableRow, Cells: cells}
}

// Raw returns an unstructured text block.
func Raw(text string) ContentBlock {
	return ContentBlock{Kind: BlockRaw, Text: text}
}

// CharCount returns the number of non-whitespace characters in the block.
func (b ContentBlock) CharCount() int {
	n := countNonSpace(b.Text)
	for _, c := range b.Cells {
		n += countNonSpace(c)
	}
	return n
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// ImageAnchor is a page-local reference to a kept image. It does not own
// the image bytes.
type ImageAnchor struct {
	ImageID string  `json:"image_id" yaml:"image_id"`
	Page    int     `json:"page" yaml:"page"`
	Order   int     `json:"order" yaml:"order"`
	Offset  float64 `json:"offset" yaml:"offset"`
}

// FilterBelowMinSize is the reason recorded for images that are not kept.
const FilterBelowMinSize = "below_min_size"

// ImageAsset is one embedded image found on a page, kept or filtered.
type ImageAsset struct {
	ID               string      `json:"id"`
	Page             int         `json:"page"`
	Seq              int         `json:"seq"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	Format           string      `json:"format,omitempty"`
	ColorSpace       string      `json:"colorspace,omitempty"`
	BitsPerComponent int         `json:"bpc,omitempty"`
	SizeBytes        int         `json:"size_bytes"`
	Kept             bool        `json:"kept"`
	FilterReason     string      `json:"filter_reason,omitempty"`
	Anchor           ImageAnchor `json:"anchor"`

	// PayloadMissing marks a kept image whose bytes could not be read. It
	// has no file and no anchor.
	PayloadMissing bool `json:"payload_missing,omitempty"`

	// Data holds the encoded image bytes; written by the output assembler.
	Data []byte `json:"-"`
}

// Filename returns the asset file name under images/.
func (a ImageAsset) Filename() string {
	ext := a.Format
	if ext == "" {
		ext = "bin"
	}
	return a.ID + "." + ext
}

// PageInfo holds per-page geometry and counters.
type PageInfo struct {
	Number          int     `json:"number"`
	WidthPt         float64 `json:"width_pt"`
	HeightPt        float64 `json:"height_pt"`
	WidthMM         float64 `json:"width_mm"`
	HeightMM        float64 `json:"height_mm"`
	Rotation        int     `json:"rotation"`
	HasText         bool    `json:"has_text"`
	CharCount       int     `json:"char_count"`
	ImageCount      int     `json:"image_count"`
	AnnotationCount int     `json:"annotation_count"`
}

// Page is one extracted page of a Document.
type Page struct {
	// Index is the 1-based page number in the source document.
	Index   int            `json:"index"`
	Blocks  []ContentBlock `json:"blocks"`
	Anchors []ImageAnchor  `json:"anchors,omitempty"`

	// EmptyText marks a page that yielded no extractable text.
	EmptyText bool `json:"empty_text,omitempty"`

	// FellBack marks a page whose layout extraction failed locally.
	FellBack bool `json:"fell_back,omitempty"`

	Info PageInfo `json:"info"`
}

// CharCount returns the non-whitespace characters across the page's blocks.
func (p Page) CharCount() int {
	n := 0
	for _, b := range p.Blocks {
		n += b.CharCount()
	}
	return n
}

// DocInfo holds the PDF information dictionary and header version.
type DocInfo struct {
	Title            string `json:"title,omitempty" yaml:"pdf_title,omitempty"`
	Author           string `json:"author,omitempty" yaml:"pdf_author,omitempty"`
	Subject          string `json:"subject,omitempty" yaml:"pdf_subject,omitempty"`
	Keywords         string `json:"keywords,omitempty" yaml:"pdf_keywords,omitempty"`
	Creator          string `json:"creator,omitempty" yaml:"pdf_creator,omitempty"`
	Producer         string `json:"producer,omitempty" yaml:"pdf_producer,omitempty"`
	CreationDate     string `json:"creation_date,omitempty" yaml:"pdf_creation_date,omitempty"`
	ModificationDate string `json:"modification_date,omitempty" yaml:"pdf_modification_date,omitempty"`
	Version          string `json:"pdf_version,omitempty" yaml:"pdf_version,omitempty"`
}

// OutlineItem is one bookmark entry, flattened with its depth (0 = top).
type OutlineItem struct {
	Title string `json:"title"`
	Level int    `json:"level"`
}

// Annotation is a non-link page annotation.
type Annotation struct {
	Page    int    `json:"page"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Author  string `json:"author,omitempty"`
}

// Link is a URI link annotation.
type Link struct {
	Page int    `json:"page"`
	Text string `json:"text,omitempty"`
	URI  string `json:"uri"`
}

// FontInfo records a font and the pages that use it.
type FontInfo struct {
	Name      string `json:"name"`
	PagesUsed []int  `json:"pages_used"`
}

// Document is the result of one extraction run. It is built once and only
// read after the output assembler consumes it.
type Document struct {
	SourcePath  string    `json:"source_path"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256      string    `json:"sha256"`
	ExtractedAt time.Time `json:"extracted_at"`

	// PageCount is the number of pages in the source document.
	PageCount int       `json:"page_count"`
	Range     PageRange `json:"range"`

	HasOutline bool `json:"has_outline"`
	HasForms   bool `json:"has_forms"`

	Method         Method `json:"method"`
	FallbackReason string `json:"fallback_reason,omitempty"`
	Forced         bool   `json:"forced"`

	Pages  []Page       `json:"pages"`
	Images []ImageAsset `json:"images"`

	Info        DocInfo       `json:"info"`
	Outline     []OutlineItem `json:"outline,omitempty"`
	Annotations []Annotation  `json:"annotations,omitempty"`
	Links       []Link        `json:"links,omitempty"`
	Fonts       []FontInfo    `json:"fonts,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// Name returns the source file name without directory or extension.
func (d *Document) Name() string {
	base := d.SourcePath
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// HasFile reports whether the asset is written under images/.
func (a ImageAsset) HasFile() bool {
	return a.Kept && !a.PayloadMissing
}

// KeptImages returns the kept image assets in document order.
func (d *Document) KeptImages() []ImageAsset {
	var kept []ImageAsset
	for _, img := range d.Images {
		if img.Kept {
			kept = append(kept, img)
		}
	}
	return kept
}
