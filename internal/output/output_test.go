// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-extract/internal/metadata"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

func at(b types.ContentBlock, offset float64) types.ContentBlock {
	b.Offset = offset
	return b
}

func sampleDoc(t *testing.T) *types.Document {
	t.Helper()
	anchor := types.ImageAnchor{ImageID: "page1_img1", Page: 1, Order: 1, Offset: 0.4}
	doc := &types.Document{
		SourcePath:  "/in/report.pdf",
		SizeBytes:   2048,
		SHA256:      "abc",
		ExtractedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		PageCount:   2,
		Range:       types.PageRange{Start: 1, End: 2},
		Method:      types.MethodPrimary,
		Info:        types.DocInfo{Title: "Report", Version: "1.7"},
		Pages: []types.Page{
			{
				Index: 1,
				Blocks: []types.ContentBlock{
					at(types.Heading(2, "Intro"), 0.1),
					at(types.Paragraph("Body paragraph."), 0.3),
					at(types.ListItem("•", false, 0, "one"), 0.5),
					at(types.ListItem("•", false, 1, "two"), 0.52),
					at(types.TableRow("Name", "Value"), 0.7),
					at(types.TableRow("a", "1"), 0.72),
				},
				Anchors: []types.ImageAnchor{anchor},
			},
			{Index: 2, EmptyText: true},
		},
		Images: []types.ImageAsset{
			{ID: "page1_img1", Page: 1, Seq: 1, Width: 500, Height: 400, Format: "png", Kept: true, Anchor: anchor, Data: []byte("png-bytes")},
			{ID: "page1_filtered2", Page: 1, Seq: 2, Width: 20, Height: 20, Format: "png", FilterReason: types.FilterBelowMinSize},
		},
	}
	m, err := metadata.Synthesize(doc, metadata.Options{MinImageSize: 100, LowYieldChars: 5, Version: "test"})
	require.NoError(t, err)
	doc.Metadata = m
	return doc
}

func TestRender_Frontmatter(t *testing.T) {
	md, err := Render(sampleDoc(t))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(md, "---\n"))
	parts := strings.SplitN(md, "---\n", 3)
	require.Len(t, parts, 3)

	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "report.pdf", fm["source_file"])
	assert.Equal(t, "primary", fm["extraction_method"])
	assert.Equal(t, "1-2", fm["extracted_pages"])
	assert.Equal(t, "test", fm["tool_version"])
	assert.Equal(t, "Report", fm["pdf_title"])
	assert.Equal(t, "1.7", fm["pdf_version"])
	assert.Equal(t, "2.0 KB", fm["file_size_human"])
	assert.Equal(t, 2, fm["total_pages"])
	assert.Equal(t, 1, fm["total_images"])
	assert.Equal(t, 1, fm["filtered_images"])
	assert.Equal(t, "./images/", fm["image_folder"])
	assert.Equal(t, false, fm["forced_method"])
	assert.NotContains(t, fm, "fallback_reason")
	assert.NotContains(t, fm, "pdf_author")
}

func TestRender_Pages(t *testing.T) {
	md, err := Render(sampleDoc(t))
	require.NoError(t, err)

	assert.Contains(t, md, "\n# Extracted Content\n")
	assert.Contains(t, md, "<!-- PAGE 1 START -->\n\n"+
		"## Intro\n\n"+
		"Body paragraph.\n\n"+
		"<!-- IMAGE: page1_img1.png (500x400px) -->\n\n"+
		"- one\n"+
		"  - two\n\n"+
		"| Name | Value |\n"+
		"| --- | --- |\n"+
		"| a | 1 |\n\n"+
		"<!-- PAGE 1 END -->\n")
	assert.Contains(t, md, "<!-- PAGE 2 START -->\n\n"+
		"<!-- PAGE 2: NO EXTRACTABLE TEXT -->\n\n"+
		"<!-- PAGE 2 END -->\n")
	assert.NotContains(t, md, "page1_filtered2")
	assert.Less(t, strings.Index(md, "PAGE 1 END"), strings.Index(md, "PAGE 2 START"))
}

func TestRender_ImageAfterText(t *testing.T) {
	doc := sampleDoc(t)
	doc.Pages[0].Blocks = []types.ContentBlock{at(types.Raw("scanned words"), 0)}
	doc.Pages[0].Anchors[0].Offset = 1

	md, err := Render(doc)
	require.NoError(t, err)
	assert.Contains(t, md, "scanned words\n\n<!-- IMAGE: page1_img1.png (500x400px) -->\n\n<!-- PAGE 1 END -->")
}

func TestRender_OrderedList(t *testing.T) {
	doc := sampleDoc(t)
	doc.Pages[0].Blocks = []types.ContentBlock{
		types.ListItem("1.", true, 0, "first"),
		types.ListItem("2.", true, 0, "second"),
	}
	doc.Pages[0].Anchors = nil

	md, err := Render(doc)
	require.NoError(t, err)
	assert.Contains(t, md, "1. first\n2. second\n")
}

func TestRender_Sections(t *testing.T) {
	doc := sampleDoc(t)
	doc.Outline = []types.OutlineItem{{Title: "Intro", Level: 0}, {Title: "Details", Level: 1}}
	doc.Annotations = []types.Annotation{{Page: 1, Type: "Text", Content: strings.Repeat("x", 60), Author: "ann"}}
	doc.Links = []types.Link{{Page: 1, Text: "a | b", URI: "https://example.com/"}}

	md, err := Render(doc)
	require.NoError(t, err)

	assert.Contains(t, md, "\n# Document Outline\n\n- Intro\n  - Details\n")
	assert.Contains(t, md, "| 1 | Text | "+strings.Repeat("x", 47)+"... | ann |\n")
	assert.Contains(t, md, "| 1 | a \\| b | https://example.com/ |\n")
	assert.Less(t, strings.Index(md, "# Hyperlinks"), strings.Index(md, "# Extracted Content"))
}

func TestRender_NoSections(t *testing.T) {
	md, err := Render(sampleDoc(t))
	require.NoError(t, err)
	assert.NotContains(t, md, "# Document Outline")
	assert.NotContains(t, md, "# Annotations")
	assert.NotContains(t, md, "# Hyperlinks")
}

func TestCell(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"plain", 0, "plain"},
		{"multi\nline  text", 0, "multi line text"},
		{"a|b", 0, `a\|b`},
		{"abcdefghij", 8, "abcde..."},
		{"abcdefgh", 8, "abcdefgh"},
		{"ééééééééé", 8, "ééééé..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cell(tt.in, tt.limit))
		})
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report_extracted")
	doc := sampleDoc(t)

	res, err := Write(doc, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "report.md"), res.Markdown)
	assert.FileExists(t, res.Markdown)

	data, err := os.ReadFile(res.Metadata)
	require.NoError(t, err)
	var m types.Metadata
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 2, m.TotalPages)
	assert.Equal(t, 1, m.TotalImages)
	assert.Equal(t, 1, m.FilteredImages)

	entries, err := os.ReadDir(filepath.Join(dir, imagesDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "page1_img1.png", entries[0].Name())
	assert.Equal(t, []string{filepath.Join(dir, imagesDir, "page1_img1.png")}, res.Images)

	img, err := os.ReadFile(res.Images[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), img)
}

func TestWrite_NoImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, imagesDir), 0o755))

	doc := sampleDoc(t)
	doc.Images = doc.Images[1:]
	doc.Pages[0].Anchors = nil
	m, err := metadata.Synthesize(doc, metadata.Options{MinImageSize: 100})
	require.NoError(t, err)
	doc.Metadata = m

	res, err := Write(doc, dir)
	require.NoError(t, err)
	assert.Empty(t, res.Images)
	assert.NoDirExists(t, filepath.Join(dir, imagesDir))

	md, err := os.ReadFile(res.Markdown)
	require.NoError(t, err)
	assert.NotContains(t, string(md), "image_folder")
	assert.NotContains(t, string(md), "<!-- IMAGE:")
}

func TestWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.md"), []byte("stale"), 0o644))

	_, err := Write(sampleDoc(t), dir)
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "---\n"))
}

func imageNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, imagesDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWrite_ReplacesImages(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDoc(t)
	second := types.ImageAsset{ID: "page1_img3", Page: 1, Seq: 3, Width: 300, Height: 300, Format: "jpg", Kept: true,
		Anchor: types.ImageAnchor{ImageID: "page1_img3", Page: 1, Order: 2, Offset: 0.9}, Data: []byte("jpg-bytes")}
	doc.Images = append(doc.Images, second)
	doc.Pages[0].Anchors = append(doc.Pages[0].Anchors, second.Anchor)
	m, err := metadata.Synthesize(doc, metadata.Options{MinImageSize: 100})
	require.NoError(t, err)
	doc.Metadata = m
	_, err = Write(doc, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"page1_img1.png", "page1_img3.jpg"}, imageNames(t, dir))

	_, err = Write(sampleDoc(t), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"page1_img1.png"}, imageNames(t, dir), "images from the earlier run are removed")

	require.NoError(t, os.WriteFile(filepath.Join(dir, imagesDir, "notes.txt"), []byte("mine"), 0o644))
	doc = sampleDoc(t)
	doc.Images = doc.Images[1:]
	doc.Pages[0].Anchors = nil
	m, err = metadata.Synthesize(doc, metadata.Options{MinImageSize: 100})
	require.NoError(t, err)
	doc.Metadata = m
	_, err = Write(doc, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, imageNames(t, dir), "foreign files are left alone")
}

func TestWrite_PayloadMissing(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDoc(t)
	doc.Images[0].Data = nil
	doc.Images[0].PayloadMissing = true
	doc.Pages[0].Anchors = nil
	m, err := metadata.Synthesize(doc, metadata.Options{MinImageSize: 100})
	require.NoError(t, err)
	doc.Metadata = m

	res, err := Write(doc, dir)
	require.NoError(t, err)
	assert.Empty(t, res.Images)
	assert.NoDirExists(t, filepath.Join(dir, imagesDir))

	md, err := os.ReadFile(res.Markdown)
	require.NoError(t, err)
	assert.NotContains(t, string(md), "image_folder")
	assert.NotContains(t, string(md), "<!-- IMAGE:")
}

func TestWrite_Failure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Write(sampleDoc(t), filepath.Join(blocker, "out"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrOutputWriteFailed))
	assert.Equal(t, types.ExitOutputWriteFailed, types.ExitCode(err))
	assert.Contains(t, err.Error(), "/in/report.pdf")

	var te *types.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, types.StageSave, te.Stage)
}
