// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Column limits for the summary tables.
const (
	maxAnnotationContent = 50
	maxLinkText          = 40
	maxLinkURI           = 60
)

// frontmatter is the YAML header of the Markdown file.
type frontmatter struct {
	types.ExtractionInfo `yaml:",inline"`

	FileSizeBytes int64  `yaml:"file_size_bytes"`
	FileSizeHuman string `yaml:"file_size_human"`
	SHA256        string `yaml:"sha256"`
	TotalPages    int    `yaml:"total_pages"`
	SourcePages   int    `yaml:"source_pages"`

	types.DocInfo `yaml:",inline"`

	HasOutline      bool   `yaml:"has_outline"`
	OutlineItems    int    `yaml:"outline_items"`
	HasForms        bool   `yaml:"has_forms"`
	AnnotationCount int    `yaml:"annotation_count"`
	LinkCount       int    `yaml:"link_count"`
	TotalImages     int    `yaml:"total_images"`
	FilteredImages  int    `yaml:"filtered_images"`
	ImageFolder     string `yaml:"image_folder,omitempty"`
	LowTextYield    bool   `yaml:"low_text_yield"`
}

func newFrontmatter(m types.Metadata) frontmatter {
	fm := frontmatter{
		ExtractionInfo:  m.Extraction,
		FileSizeBytes:   m.File.SizeBytes,
		FileSizeHuman:   m.File.SizeHuman,
		SHA256:          m.File.SHA256,
		TotalPages:      m.TotalPages,
		SourcePages:     m.SourcePages,
		DocInfo:         m.PDF,
		HasOutline:      m.HasOutline,
		OutlineItems:    len(m.Outline),
		HasForms:        m.HasForms,
		AnnotationCount: len(m.Annotations),
		LinkCount:       len(m.Links),
		TotalImages:     m.TotalImages,
		FilteredImages:  m.FilteredImages,
		LowTextYield:    m.LowTextYield,
	}
	for _, rec := range m.Images {
		if rec.Filename != "" {
			fm.ImageFolder = "./" + imagesDir + "/"
			break
		}
	}
	return fm
}

// Render produces the complete Markdown document: frontmatter, the optional
// outline, annotation and hyperlink sections, then the page content with
// image placeholders.
func Render(doc *types.Document) (string, error) {
	header, err := yaml.Marshal(newFrontmatter(doc.Metadata))
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")

	writeOutline(&b, doc.Outline)
	writeAnnotations(&b, doc.Annotations)
	writeLinks(&b, doc.Links)

	b.WriteString("\n# Extracted Content\n")

	kept := map[string]types.ImageAsset{}
	for _, img := range doc.KeptImages() {
		kept[img.ID] = img
	}
	for _, p := range doc.Pages {
		b.WriteString("\n")
		writePage(&b, p, kept)
	}
	return b.String(), nil
}

func writeOutline(b *strings.Builder, items []types.OutlineItem) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n# Document Outline\n\n")
	for _, it := range items {
		fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", it.Level), it.Title)
	}
}

func writeAnnotations(b *strings.Builder, notes []types.Annotation) {
	if len(notes) == 0 {
		return
	}
	b.WriteString("\n# Annotations\n\n")
	b.WriteString("| Page | Type | Content | Author |\n")
	b.WriteString("|------|------|---------|--------|\n")
	for _, a := range notes {
		fmt.Fprintf(b, "| %d | %s | %s | %s |\n",
			a.Page, cell(a.Type, 0), cell(a.Content, maxAnnotationContent), cell(a.Author, 0))
	}
}

func writeLinks(b *strings.Builder, links []types.Link) {
	if len(links) == 0 {
		return
	}
	b.WriteString("\n# Hyperlinks\n\n")
	b.WriteString("| Page | Text | URL |\n")
	b.WriteString("|------|------|-----|\n")
	for _, l := range links {
		fmt.Fprintf(b, "| %d | %s | %s |\n",
			l.Page, cell(l.Text, maxLinkText), cell(l.URI, maxLinkURI))
	}
}

// writePage renders one page between its START and END markers. Image
// placeholders are placed before the first block that sits below them.
// Consecutive list items and table rows form one chunk; chunks are
// separated by a blank line.
func writePage(b *strings.Builder, p types.Page, kept map[string]types.ImageAsset) {
	fmt.Fprintf(b, "<!-- PAGE %d START -->\n\n", p.Index)

	var (
		chunks []string
		cur    strings.Builder
		prev   types.BlockKind
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		prev = ""
	}
	image := func(a types.ImageAnchor) {
		if img, ok := kept[a.ImageID]; ok {
			flush()
			chunks = append(chunks, fmt.Sprintf("<!-- IMAGE: %s (%dx%dpx) -->\n", img.Filename(), img.Width, img.Height))
		}
	}

	if len(p.Blocks) == 0 {
		chunks = append(chunks, fmt.Sprintf("<!-- PAGE %d: NO EXTRACTABLE TEXT -->\n", p.Index))
	}
	anchors := p.Anchors
	for _, blk := range p.Blocks {
		for len(anchors) > 0 && anchors[0].Offset < blk.Offset {
			image(anchors[0])
			anchors = anchors[1:]
		}
		if !continuesRun(prev, blk.Kind) {
			flush()
		}
		writeBlock(&cur, blk, prev)
		prev = blk.Kind
	}
	flush()
	for _, a := range anchors {
		image(a)
	}

	for _, c := range chunks {
		b.WriteString(c)
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "<!-- PAGE %d END -->\n", p.Index)
}

// continuesRun reports whether blocks of kind next follow prev without a
// blank line, as in consecutive list items or table rows.
func continuesRun(prev, next types.BlockKind) bool {
	return prev == next && (next == types.BlockListItem || next == types.BlockTableRow)
}

// writeBlock renders one content block. prev is the kind of the block
// rendered just before it in the same chunk.
func writeBlock(b *strings.Builder, blk types.ContentBlock, prev types.BlockKind) {
	switch blk.Kind {
	case types.BlockHeading:
		level := min(max(blk.Level, 1), 6)
		fmt.Fprintf(b, "%s %s\n", strings.Repeat("#", level), blk.Text)
	case types.BlockListItem:
		marker := "-"
		if blk.Ordered {
			marker = blk.Marker
		}
		fmt.Fprintf(b, "%s%s %s\n", strings.Repeat("  ", blk.Depth), marker, blk.Text)
	case types.BlockTableRow:
		cells := make([]string, len(blk.Cells))
		for i, c := range blk.Cells {
			cells[i] = cell(c, 0)
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
		if prev != types.BlockTableRow {
			b.WriteString("|" + strings.Repeat(" --- |", len(cells)) + "\n")
		}
	default:
		b.WriteString(blk.Text)
		b.WriteString("\n")
	}
}

// cell flattens s onto one line, truncates it to limit runes (0 means no
// limit) and escapes pipes.
func cell(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit > 0 && utf8.RuneCountInString(s) > limit {
		r := []rune(s)
		s = string(r[:limit-3]) + "..."
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
