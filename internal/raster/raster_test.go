// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// fakeOCR records the images it was asked to read.
type fakeOCR struct {
	text  string
	err   error
	calls [][]byte
}

func (f *fakeOCR) Recognize(image []byte) (string, error) {
	f.calls = append(f.calls, image)
	return f.text, f.err
}

func run(text string, x, y float64) pdfdoc.Run {
	return pdfdoc.Run{Text: text, X: x, Y: y, Width: float64(len(text)) * 5, FontSize: 10}
}

func TestReflow(t *testing.T) {
	runs := []pdfdoc.Run{
		run("second", 72, 688),
		run("right", 300, 700.5),
		run("left", 72, 700),
		run("after gap", 72, 640),
	}
	text, y := reflow(runs)
	assert.Equal(t, "left right\nsecond\n\nafter gap", text)
	assert.Equal(t, 700.0, y)

	text, _ = reflow(nil)
	assert.Empty(t, text)
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "a\nb\n\nc", plain("  a \nb\n\n\n  \nc\n"))
	assert.Equal(t, "", plain(" \n \n"))
}

func TestExtractPage(t *testing.T) {
	tests := []struct {
		name      string
		page      *pdfdoc.RawPage
		ocr       *fakeOCR
		want      string
		emptyText bool
	}{
		{
			name: "runs",
			page: &pdfdoc.RawPage{Index: 1, Height: 792, Runs: []pdfdoc.Run{run("hello", 72, 700)}, PlainText: "ignored"},
			want: "hello",
		},
		{
			name: "plain text when runs are missing",
			page: &pdfdoc.RawPage{Index: 2, Height: 792, PlainText: "from\n\nplain"},
			want: "from\n\nplain",
		},
		{
			name:      "scanned page without ocr",
			page:      &pdfdoc.RawPage{Index: 3, Height: 792, Images: []pdfdoc.RawImage{{Width: 800, Height: 1000, Data: []byte{1}}}},
			emptyText: true,
		},
		{
			name: "scanned page with ocr",
			page: &pdfdoc.RawPage{Index: 4, Height: 792, Images: []pdfdoc.RawImage{
				{Name: "small", Width: 10, Height: 10, Data: []byte("small")},
				{Name: "scan", Width: 800, Height: 1000, Data: []byte("scan")},
				{Name: "empty", Width: 2000, Height: 2000},
			}},
			ocr:  &fakeOCR{text: "  recognized words \n"},
			want: "recognized words",
		},
		{
			name:      "ocr error",
			page:      &pdfdoc.RawPage{Index: 5, Height: 792, Images: []pdfdoc.RawImage{{Width: 8, Height: 8, Data: []byte{1}}}},
			ocr:       &fakeOCR{err: errors.New("tesseract missing")},
			emptyText: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Recognizer
			if tt.ocr != nil {
				rec = tt.ocr
			}
			p := New(rec, nil).ExtractPage(tt.page)
			assert.Equal(t, tt.page.Index, p.Index)
			assert.Equal(t, tt.emptyText, p.EmptyText)
			if tt.emptyText {
				assert.Empty(t, p.Blocks)
				return
			}
			require.Len(t, p.Blocks, 1)
			assert.Equal(t, types.BlockRaw, p.Blocks[0].Kind)
			assert.Equal(t, tt.want, p.Blocks[0].Text)
		})
	}
}

func TestExtractPage_OCRPicksLargestImage(t *testing.T) {
	ocr := &fakeOCR{text: "x"}
	page := &pdfdoc.RawPage{Index: 1, Images: []pdfdoc.RawImage{
		{Width: 10, Height: 10, Data: []byte("small")},
		{Width: 800, Height: 1000, Data: []byte("scan")},
	}}
	New(ocr, nil).ExtractPage(page)
	require.Len(t, ocr.calls, 1)
	assert.Equal(t, []byte("scan"), ocr.calls[0])
}

func TestExtract(t *testing.T) {
	e := New(nil, nil)

	t.Run("some pages unreadable", func(t *testing.T) {
		pages, err := e.Extract(context.Background(), []*pdfdoc.RawPage{
			{Index: 2, PlainText: "text"},
			{Index: 3, TextErr: errors.New("broken")},
		})
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, 2, pages[0].Index)
		assert.True(t, pages[1].EmptyText)
	})

	t.Run("every page unreadable", func(t *testing.T) {
		_, err := e.Extract(context.Background(), []*pdfdoc.RawPage{
			{Index: 1, TextErr: errors.New("broken")},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrExtractionFailed)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("empty pages are not failures", func(t *testing.T) {
		pages, err := e.Extract(context.Background(), []*pdfdoc.RawPage{{Index: 1}})
		require.NoError(t, err)
		assert.True(t, pages[0].EmptyText)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.Extract(ctx, []*pdfdoc.RawPage{{Index: 1}})
		assert.ErrorIs(t, err, context.Canceled)
	})

	assert.Equal(t, types.MethodFallback, e.Method())
}
