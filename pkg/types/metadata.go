// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Fallback reasons recorded when the document method is not the primary
// strategy, or when the choice was forced.
const (
	ReasonPrimaryFailed = "primary_failed"
	ReasonEmptyOutput   = "empty_output"
	ReasonLowYield      = "low_yield"
	ReasonForced        = "forced"
)

// ImageRecord is the metadata entry for one image, kept or filtered.
type ImageRecord struct {
	ID               string  `json:"id"`
	Page             int     `json:"page"`
	Filename         string  `json:"filename,omitempty"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Format           string  `json:"format,omitempty"`
	ColorSpace       string  `json:"colorspace,omitempty"`
	BitsPerComponent int     `json:"bpc,omitempty"`
	SizeBytes        int     `json:"size_bytes"`
	Kept             bool    `json:"kept"`
	FilterReason     string  `json:"filter_reason,omitempty"`
	PayloadMissing   bool    `json:"payload_missing,omitempty"`
	Offset           float64 `json:"position"`
}

// ExtractionInfo describes how the run was performed.
type ExtractionInfo struct {
	SourceFile     string `json:"source_file" yaml:"source_file"`
	SourcePath     string `json:"source_path" yaml:"source_path"`
	OutputDir      string `json:"output_folder,omitempty" yaml:"-"`
	ExtractionDate string `json:"extraction_date" yaml:"extraction_date"`
	Method         Method `json:"extraction_method" yaml:"extraction_method"`
	FallbackReason string `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
	Forced         bool   `json:"forced" yaml:"forced_method"`
	ExtractedPages string `json:"extracted_pages" yaml:"extracted_pages"`
	Version        string `json:"tool_version" yaml:"tool_version"`
}

// FileInfo describes the source file.
type FileInfo struct {
	SizeBytes int64  `json:"size_bytes"`
	SizeHuman string `json:"size_human"`
	SHA256    string `json:"sha256"`
}

// Metadata is the single structured record describing an extraction run.
type Metadata struct {
	Extraction ExtractionInfo `json:"extraction"`
	File       FileInfo       `json:"file"`
	PDF        DocInfo        `json:"pdf_metadata"`

	TotalPages     int    `json:"total_pages"`
	SourcePages    int    `json:"source_pages"`
	HasOutline     bool   `json:"has_outline"`
	HasForms       bool   `json:"has_forms"`
	TotalImages    int    `json:"total_images"`
	FilteredImages int    `json:"filtered_images"`
	MinImageSize   int    `json:"min_image_size"`
	Method         Method `json:"extraction_method"`
	FallbackReason string `json:"fallback_reason,omitempty"`

	LowTextYield   bool  `json:"low_text_yield"`
	TotalChars     int   `json:"total_chars"`
	EmptyTextPages []int `json:"empty_text_pages,omitempty"`
	FallbackPages  []int `json:"fallback_pages,omitempty"`

	Images      []ImageRecord `json:"images"`
	Pages       []PageInfo    `json:"pages"`
	Outline     []OutlineItem `json:"outline,omitempty"`
	Annotations []Annotation  `json:"annotations,omitempty"`
	Links       []Link        `json:"links,omitempty"`
	Fonts       []FontInfo    `json:"fonts,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
}
