// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/internal/testpdf"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

func TestOpen_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty file", nil},
		{"not a pdf", []byte("GIF89a this is not a document")},
		{"truncated", append([]byte("%PDF-1.4\n"), []byte("1 0 obj\n<< /Type /Catalog")...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.pdf")
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))

			doc, err := Open(path, nil)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, types.ErrDocumentInvalid), "got %v", err)
			assert.Equal(t, types.ExitDocumentInvalid, types.ExitCode(err))
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestOpen_Protected(t *testing.T) {
	tests := []struct {
		name   string
		cipher testpdf.Cipher
	}{
		{"aes-128", testpdf.AES128},
		{"aes-256", testpdf.AES256},
		{"rc4-128", testpdf.RC4128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testpdf.Write(t, t.TempDir(), "locked.pdf", testpdf.TextPages("secret text"))
			testpdf.Protect(t, path, tt.cipher, "user", "owner")

			doc, err := Open(path, nil)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, types.ErrDocumentProtected), "got %v", err)
			assert.Equal(t, types.ExitDocumentProtected, types.ExitCode(err))
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestOpen_OwnerPasswordOnly(t *testing.T) {
	tests := []struct {
		name   string
		cipher testpdf.Cipher
	}{
		{"aes-128", testpdf.AES128},
		{"aes-256", testpdf.AES256},
		{"rc4-128", testpdf.RC4128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testpdf.Write(t, t.TempDir(), "restricted.pdf", testpdf.TextPages("readable text"))
			testpdf.Protect(t, path, tt.cipher, "", "owner")

			doc, err := Open(path, nil)
			require.NoError(t, err)
			defer doc.Close()

			assert.Equal(t, 1, doc.PageCount())
			cur, err := doc.Pages(types.PageRange{})
			require.NoError(t, err)
			require.True(t, cur.Next())
			assert.True(t, cur.Page().HasText())
			assert.Contains(t, cur.Page().PlainText, "readable text")
		})
	}
}

func TestOpen_AES256Decrypted(t *testing.T) {
	path := testpdf.Write(t, t.TempDir(), "restricted.pdf", testpdf.TextPages("readable text"))
	testpdf.Protect(t, path, testpdf.AES256, "", "owner")

	doc, err := Open(path, nil)
	require.NoError(t, err)
	defer doc.Close()
	assert.Contains(t, doc.Warnings(), "encrypted document opened without a user password")
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pdf"), nil)
	assert.True(t, errors.Is(err, types.ErrDocumentInvalid))
}

func TestOpen_Structure(t *testing.T) {
	d := testpdf.TextPages("first page", "second page", "third page")
	d.Info = map[string]string{
		"Title":        "Sample",
		"Author":       "Tester",
		"CreationDate": "D:20240102030405Z",
	}
	d.Outline = []string{"Intro", "Body"}
	d.Form = true
	path := testpdf.Write(t, t.TempDir(), "doc.pdf", d)

	doc, err := Open(path, nil)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 3, doc.PageCount())
	assert.Equal(t, "1.4", doc.Version())
	assert.Len(t, doc.SHA256(), 64)
	assert.Positive(t, doc.Size())

	info := doc.Info()
	assert.Equal(t, "Sample", info.Title)
	assert.Equal(t, "Tester", info.Author)
	assert.Equal(t, "2024-01-02T03:04:05Z", info.CreationDate)

	assert.Equal(t, []types.OutlineItem{{Title: "Intro"}, {Title: "Body"}}, doc.Outline())
	assert.True(t, doc.HasForms())
}

func TestOpen_NoOutlineNoForms(t *testing.T) {
	path := testpdf.Write(t, t.TempDir(), "plain.pdf", testpdf.TextPages("only"))
	doc, err := Open(path, nil)
	require.NoError(t, err)
	defer doc.Close()

	assert.Empty(t, doc.Outline())
	assert.False(t, doc.HasForms())
}

func TestPages_Range(t *testing.T) {
	var texts []string
	for i := 1; i <= 10; i++ {
		texts = append(texts, "page text "+strings.Repeat("x", i))
	}
	path := testpdf.Write(t, t.TempDir(), "ten.pdf", testpdf.TextPages(texts...))
	doc, err := Open(path, nil)
	require.NoError(t, err)
	defer doc.Close()

	t.Run("subrange keeps source numbering", func(t *testing.T) {
		cur, err := doc.Pages(types.PageRange{Start: 2, End: 5})
		require.NoError(t, err)
		var got []int
		for cur.Next() {
			got = append(got, cur.Page().Index)
		}
		assert.Equal(t, []int{2, 3, 4, 5}, got)
		assert.False(t, cur.Next(), "cursor is not restartable")
	})

	t.Run("zero range is every page", func(t *testing.T) {
		cur, err := doc.Pages(types.PageRange{})
		require.NoError(t, err)
		n := 0
		for cur.Next() {
			n++
		}
		assert.Equal(t, 10, n)
	})

	for _, r := range []types.PageRange{{Start: 0, End: 3}, {Start: 5, End: 4}, {Start: 8, End: 11}} {
		t.Run("invalid "+r.String(), func(t *testing.T) {
			_, err := doc.Pages(r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrPageRangeInvalid))
			assert.Equal(t, types.ExitPageRangeInvalid, types.ExitCode(err))
		})
	}
}

func TestReadPage_Content(t *testing.T) {
	page := testpdf.Page{
		Content: testpdf.Text(testpdf.Bold, 18, 72, 720, "Heading") +
			testpdf.Text(testpdf.Regular, 11, 72, 690, "Body text here.") +
			testpdf.Box(72, 100, 200, 50),
		Links: []testpdf.Link{{X0: 70, Y0: 685, X1: 200, Y1: 702, URI: "https://example.com"}},
		Notes: []string{"check this"},
	}
	path := testpdf.Write(t, t.TempDir(), "content.pdf", testpdf.Doc{Pages: []testpdf.Page{page}})
	doc, err := Open(path, nil)
	require.NoError(t, err)
	defer doc.Close()

	cur, err := doc.Pages(types.PageRange{})
	require.NoError(t, err)
	require.True(t, cur.Next())
	rp := cur.Page()

	assert.Equal(t, 1, rp.Index)
	assert.Equal(t, 612.0, rp.Width)
	assert.Equal(t, 792.0, rp.Height)
	assert.True(t, rp.HasText())
	require.Len(t, rp.Runs, 2)
	assert.Equal(t, "Heading", rp.Runs[0].Text)
	assert.True(t, rp.Runs[0].Bold)
	assert.InDelta(t, 18, rp.Runs[0].FontSize, 0.01)
	assert.Equal(t, "Body text here.", rp.Runs[1].Text)
	assert.Contains(t, rp.PlainText, "Body text here.")
	assert.Len(t, rp.Rects, 1)
	assert.Equal(t, []string{"Helvetica", "Helvetica-Bold"}, rp.Fonts)

	require.Len(t, rp.Links, 1)
	assert.Equal(t, "https://example.com", rp.Links[0].URI)
	assert.Equal(t, "Body text here.", rp.Links[0].Text)
	require.Len(t, rp.Annotations, 1)
	assert.Equal(t, "Text", rp.Annotations[0].Type)
	assert.Equal(t, "check this", rp.Annotations[0].Content)
}

func TestReadPage_Draws(t *testing.T) {
	page := testpdf.Page{
		Content: testpdf.Draw("Im2", 72, 400, 100, 100) + testpdf.Draw("Im1", 72, 600, 50, 50),
		Images: map[string]testpdf.Image{
			"Im1": testpdf.NewImage(50, 50),
			"Im2": testpdf.NewImage(100, 100),
		},
	}
	path := testpdf.Write(t, t.TempDir(), "draws.pdf", testpdf.Doc{Pages: []testpdf.Page{page}})
	doc, err := Open(path, nil)
	require.NoError(t, err)
	defer doc.Close()

	cur, err := doc.Pages(types.PageRange{})
	require.NoError(t, err)
	require.True(t, cur.Next())
	rp := cur.Page()

	require.Len(t, rp.Draws, 2)
	assert.Equal(t, "Im2", rp.Draws[0].Name)
	assert.InDelta(t, 500, rp.Draws[0].Top, 0.01)
	assert.Equal(t, "Im1", rp.Draws[1].Name)
	assert.InDelta(t, 650, rp.Draws[1].Top, 0.01)
	assert.False(t, rp.HasText())
}

func TestReadPage_InheritedMediaBox(t *testing.T) {
	d := testpdf.Doc{
		SharedBox: true,
		Pages: []testpdf.Page{
			{Content: testpdf.Text(testpdf.Regular, 12, 72, 700, "inherits")},
			{Content: testpdf.Text(testpdf.Regular, 12, 20, 300, "own box"), Width: 300, Height: 400},
		},
	}
	path := testpdf.Write(t, t.TempDir(), "boxes.pdf", d)
	doc, err := Open(path, nil)
	require.NoError(t, err)
	defer doc.Close()

	cur, err := doc.Pages(types.PageRange{})
	require.NoError(t, err)
	require.True(t, cur.Next())
	assert.InDelta(t, 595.28, cur.Page().Width, 0.01)
	assert.InDelta(t, 841.89, cur.Page().Height, 0.01)
	require.True(t, cur.Next())
	assert.Equal(t, 300.0, cur.Page().Width)
	assert.Equal(t, 400.0, cur.Page().Height)
}

func TestClose_StopsCursor(t *testing.T) {
	path := testpdf.Write(t, t.TempDir(), "two.pdf", testpdf.TextPages("a", "b"))
	doc, err := Open(path, nil)
	require.NoError(t, err)

	cur, err := doc.Pages(types.PageRange{})
	require.NoError(t, err)
	require.True(t, cur.Next())
	require.NoError(t, doc.Close())
	assert.False(t, cur.Next())
	assert.NoError(t, doc.Close())
}

func TestIsPasswordError(t *testing.T) {
	assert.True(t, isPasswordError(errors.New("pdfcpu: please provide the correct password")))
	assert.True(t, isPasswordError(errors.New("unsupported encryption")))
	assert.False(t, isPasswordError(errors.New("xref corrupt")))
}

func TestNormalizeFormat(t *testing.T) {
	assert.Equal(t, "jpg", normalizeFormat("jpeg"))
	assert.Equal(t, "jpg", normalizeFormat(".jpg"))
	assert.Equal(t, "tif", normalizeFormat("TIFF"))
	assert.Equal(t, "png", normalizeFormat("png"))
}
