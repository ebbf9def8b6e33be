// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"D:20230115103000Z", "2023-01-15T10:30:00Z"},
		{"D:20230115103000+05'30'", "2023-01-15T10:30:00+05:30"},
		{"D:20230115103000-08'00", "2023-01-15T10:30:00-08:00"},
		{"D:2023", "2023-01-01T00:00:00Z"},
		{"20200229", "2020-02-29T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "efficient file", normalizeText("e\ufb03cient \ufb01le"))
	assert.Equal(t, "ab", normalizeText("a\x00b"))
	assert.Equal(t, "a\tb\nc", normalizeText("a\tb\nc"))
	assert.Equal(t, "x", normalizeText("\ufeffx"))
}

func TestHeaderVersion(t *testing.T) {
	assert.Equal(t, "1.7", headerVersion([]byte("%PDF-1.7\n%abc")))
	assert.Equal(t, "2.0", headerVersion([]byte("%PDF-2.0\r")))
	assert.Equal(t, "", headerVersion([]byte("GIF89a")))
}

func TestFontStyle(t *testing.T) {
	assert.True(t, isBoldFont("Helvetica-Bold"))
	assert.True(t, isBoldFont("ABCDEF+Roboto-SemiBold"))
	assert.False(t, isBoldFont("Times-Roman"))
	assert.True(t, isItalicFont("Helvetica-Oblique"))
	assert.Equal(t, "Roboto-Regular", stripSubset("ABCDEF+Roboto-Regular"))
	assert.Equal(t, "A+B", stripSubset("A+B"))
}

func glyphs(font string, size, x, y float64, s string) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{Font: font, FontSize: size, X: x, Y: y, W: size / 2, S: string(r)})
		x += size / 2
	}
	return out
}

func TestMergeGlyphs(t *testing.T) {
	t.Run("one word per run on one baseline", func(t *testing.T) {
		in := glyphs("Helvetica", 10, 100, 700, "Hello world")
		runs := mergeGlyphs(in)
		require.Len(t, runs, 1)
		assert.Equal(t, "Hello world", runs[0].Text)
		assert.InDelta(t, 100, runs[0].X, 0.01)
		assert.InDelta(t, 55, runs[0].Width, 0.01)
	})

	t.Run("implicit space from positioning", func(t *testing.T) {
		in := append(glyphs("Helvetica", 10, 100, 700, "two"), glyphs("Helvetica", 10, 118, 700, "words")...)
		runs := mergeGlyphs(in)
		require.Len(t, runs, 1)
		assert.Equal(t, "two words", runs[0].Text)
	})

	t.Run("split on font change and newline", func(t *testing.T) {
		in := glyphs("Helvetica-Bold", 14, 72, 720, "Title")
		in = append(in, pdf.Text{S: "\n"})
		in = append(in, glyphs("Helvetica", 10, 72, 700, "body")...)
		runs := mergeGlyphs(in)
		require.Len(t, runs, 2)
		assert.Equal(t, "Title", runs[0].Text)
		assert.True(t, runs[0].Bold)
		assert.Equal(t, 14.0, runs[0].FontSize)
		assert.Equal(t, "body", runs[1].Text)
		assert.False(t, runs[1].Bold)
	})

	t.Run("split on wide gap", func(t *testing.T) {
		in := append(glyphs("Helvetica", 10, 72, 700, "left"), glyphs("Helvetica", 10, 300, 700, "right")...)
		runs := mergeGlyphs(in)
		require.Len(t, runs, 2)
		assert.Equal(t, "left", runs[0].Text)
		assert.Equal(t, "right", runs[1].Text)
	})

	t.Run("ligature folding", func(t *testing.T) {
		runs := mergeGlyphs(glyphs("Helvetica", 10, 0, 0, "\ufb01nal"))
		require.Len(t, runs, 1)
		assert.Equal(t, "final", runs[0].Text)
	})

	t.Run("whitespace only", func(t *testing.T) {
		assert.Empty(t, mergeGlyphs(glyphs("Helvetica", 10, 0, 0, "   ")))
	})
}

func TestMatrixTop(t *testing.T) {
	m := matrix{500, 0, 0, 400, 50, 100}
	assert.InDelta(t, 500, m.top(), 0.001)

	// a translation applied after scaling
	scaled := matrix{2, 0, 0, 2, 0, 0}.mul(matrix{1, 0, 0, 1, 10, 20})
	assert.InDelta(t, 22, scaled.top(), 0.001)

	flipped := matrix{100, 0, 0, -100, 0, 300}
	assert.InDelta(t, 300, flipped.top(), 0.001)
}

func TestToRects(t *testing.T) {
	in := []pdf.Rect{
		{Min: pdf.Point{X: 10, Y: 50}, Max: pdf.Point{X: 5, Y: 20}},
		{Min: pdf.Point{X: 1, Y: 1}, Max: pdf.Point{X: 1, Y: 1}},
	}
	out := toRects(in)
	require.Len(t, out, 1)
	assert.Equal(t, Rect{X0: 5, Y0: 20, X1: 10, Y1: 50}, out[0])
}
