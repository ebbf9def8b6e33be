// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package testpdf writes small uncompressed PDF files for tests. The files
// carry a correct cross-reference table, standard 14 fonts with explicit
// widths, optional JPEG image XObjects, annotations, an outline, an
// information dictionary and an AcroForm. Protect encrypts a written file
// through pdfcpu.
package testpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Font resource names available in every page.
const (
	Regular = "F1"
	Bold    = "F2"
)

// Image is a JPEG image XObject.
type Image struct {
	Width  int
	Height int
	Data   []byte
}

// Link is a URI link annotation.
type Link struct {
	X0, Y0, X1, Y1 float64
	URI            string
}

// Page describes one page.
type Page struct {
	// Content is the raw content stream; see Text, Draw and Box.
	Content string

	Width  float64
	Height float64

	// Images maps resource names to image XObjects.
	Images map[string]Image

	Links []Link

	// Notes are text annotation contents.
	Notes []string
}

// Doc describes a document.
type Doc struct {
	Pages []Page

	// Info entries are written to the information dictionary.
	Info map[string]string

	// Outline titles become top-level bookmarks pointing at page 1.
	Outline []string

	// Form adds an AcroForm with one text field.
	Form bool

	// Version is the header version, default "1.4".
	Version string

	// SharedBox moves the MediaBox of every page without its own size onto
	// the Pages node, so pages inherit it.
	SharedBox bool
}

// Text returns content operators drawing s at (x, y).
func Text(font string, size, x, y float64, s string) string {
	return fmt.Sprintf("BT /%s %g Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", font, size, x, y, escape(s))
}

// Draw returns content operators painting an image XObject in the given box.
func Draw(name string, x, y, w, h float64) string {
	return fmt.Sprintf("q %g 0 0 %g %g %g cm /%s Do Q\n", w, h, x, y, name)
}

// Box returns content operators stroking a rectangle.
func Box(x, y, w, h float64) string {
	return fmt.Sprintf("%g %g %g %g re S\n", x, y, w, h)
}

// JPEG returns a solid-colour JPEG of the given size.
func JPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// NewImage returns a JPEG image of the given size.
func NewImage(w, h int) Image {
	return Image{Width: w, Height: h, Data: JPEG(w, h)}
}

// TextPages returns a document with one paragraph of body text per page.
func TextPages(texts ...string) Doc {
	var d Doc
	for _, t := range texts {
		d.Pages = append(d.Pages, Page{Content: Text(Regular, 12, 72, 700, t)})
	}
	return d
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// writer accumulates numbered objects and produces the xref table.
type writer struct {
	objs [][]byte
}

// reserve allocates an object number to be filled later.
func (w *writer) reserve() int {
	w.objs = append(w.objs, nil)
	return len(w.objs)
}

func (w *writer) set(n int, body string) {
	w.objs[n-1] = []byte(body)
}

func (w *writer) add(body string) int {
	n := w.reserve()
	w.set(n, body)
	return n
}

func (w *writer) addStream(dict string, data []byte) int {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<< %s /Length %d >>\nstream\n", dict, len(data))
	b.Write(data)
	b.WriteString("\nendstream")
	n := w.reserve()
	w.objs[n-1] = b.Bytes()
	return n
}

func widths() string {
	var b strings.Builder
	b.WriteString("[")
	for c := 32; c <= 126; c++ {
		if c > 32 {
			b.WriteString(" ")
		}
		b.WriteString("500")
	}
	b.WriteString("]")
	return b.String()
}

// Build renders d as PDF bytes.
func Build(d Doc) []byte {
	w := &writer{}
	catalog := w.reserve()
	pages := w.reserve()
	fontDict := "/Type /Font /Subtype /Type1 /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths " + widths()
	f1 := w.add("<< " + fontDict + " /BaseFont /Helvetica >>")
	f2 := w.add("<< " + fontDict + " /BaseFont /Helvetica-Bold >>")

	var kids []string
	var pageRefs []int
	var fieldRefs []string
	for _, p := range d.Pages {
		width, height := p.Width, p.Height
		own := width != 0 || height != 0
		if width == 0 {
			width = 612
		}
		if height == 0 {
			height = 792
		}
		pageObj := w.reserve()
		pageRefs = append(pageRefs, pageObj)
		content := w.addStream("", []byte(p.Content))

		var xobjs []string
		names := make([]string, 0, len(p.Images))
		for name := range p.Images {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			img := p.Images[name]
			ref := w.addStream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode",
				img.Width, img.Height), img.Data)
			xobjs = append(xobjs, fmt.Sprintf("/%s %d 0 R", name, ref))
		}

		var annots []string
		for _, l := range p.Links {
			ref := w.add(fmt.Sprintf("<< /Type /Annot /Subtype /Link /Rect [%g %g %g %g] /Border [0 0 0] /A << /S /URI /URI (%s) >> >>",
				l.X0, l.Y0, l.X1, l.Y1, escape(l.URI)))
			annots = append(annots, fmt.Sprintf("%d 0 R", ref))
		}
		for _, note := range p.Notes {
			ref := w.add(fmt.Sprintf("<< /Type /Annot /Subtype /Text /Rect [10 10 30 30] /Contents (%s) /T (tester) >>", escape(note)))
			annots = append(annots, fmt.Sprintf("%d 0 R", ref))
		}
		if d.Form && len(fieldRefs) == 0 {
			ref := w.add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Tx /T (name) /Rect [72 72 272 92] /P %d 0 R >>", pageObj))
			annots = append(annots, fmt.Sprintf("%d 0 R", ref))
			fieldRefs = append(fieldRefs, fmt.Sprintf("%d 0 R", ref))
		}

		var res strings.Builder
		fmt.Fprintf(&res, "<< /Font << /F1 %d 0 R /F2 %d 0 R >>", f1, f2)
		if len(xobjs) > 0 {
			fmt.Fprintf(&res, " /XObject << %s >>", strings.Join(xobjs, " "))
		}
		res.WriteString(" >>")

		body := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Resources %s /Contents %d 0 R",
			pages, res.String(), content)
		if own || !d.SharedBox {
			body += fmt.Sprintf(" /MediaBox [0 0 %g %g]", width, height)
		}
		if len(annots) > 0 {
			body += " /Annots [" + strings.Join(annots, " ") + "]"
		}
		w.set(pageObj, body+" >>")
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))
	}
	pagesBody := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", strings.Join(kids, " "), len(kids))
	if d.SharedBox {
		pagesBody += " /MediaBox [0 0 595.28 841.89]"
	}
	w.set(pages, pagesBody+" >>")

	cat := fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R", pages)
	if len(d.Outline) > 0 && len(pageRefs) > 0 {
		root := w.reserve()
		items := make([]int, len(d.Outline))
		for i := range d.Outline {
			items[i] = w.reserve()
		}
		for i, title := range d.Outline {
			body := fmt.Sprintf("<< /Title (%s) /Parent %d 0 R /Dest [%d 0 R /Fit]", escape(title), root, pageRefs[0])
			if i > 0 {
				body += fmt.Sprintf(" /Prev %d 0 R", items[i-1])
			}
			if i < len(items)-1 {
				body += fmt.Sprintf(" /Next %d 0 R", items[i+1])
			}
			w.set(items[i], body+" >>")
		}
		w.set(root, fmt.Sprintf("<< /Type /Outlines /First %d 0 R /Last %d 0 R /Count %d >>",
			items[0], items[len(items)-1], len(items)))
		cat += fmt.Sprintf(" /Outlines %d 0 R", root)
	}
	if len(fieldRefs) > 0 {
		cat += fmt.Sprintf(" /AcroForm << /Fields [%s] >>", strings.Join(fieldRefs, " "))
	}
	w.set(catalog, cat+" >>")

	info := 0
	if len(d.Info) > 0 {
		keys := make([]string, 0, len(d.Info))
		for k := range d.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("<<")
		for _, k := range keys {
			fmt.Fprintf(&b, " /%s (%s)", k, escape(d.Info[k]))
		}
		b.WriteString(" >>")
		info = w.add(b.String())
	}

	version := d.Version
	if version == "" {
		version = "1.4"
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	offsets := make([]int, len(w.objs))
	for i, body := range w.objs {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", i+1)
		out.Write(body)
		out.WriteString("\nendobj\n")
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(w.objs)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %d 0 R", len(w.objs)+1, catalog)
	if info > 0 {
		fmt.Fprintf(&out, " /Info %d 0 R", info)
	}
	fmt.Fprintf(&out, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return out.Bytes()
}

// Cipher selects the encryption applied by Protect.
type Cipher int

const (
	AES128 Cipher = iota
	AES256
	RC4128
)

// Protect encrypts the PDF at path in place. An empty user password
// leaves the document readable by anyone, with owner restrictions only.
func Protect(t testing.TB, path string, c Cipher, userPW, ownerPW string) {
	t.Helper()
	var conf *model.Configuration
	switch c {
	case AES128:
		conf = model.NewAESConfiguration(userPW, ownerPW, 128)
	case AES256:
		conf = model.NewAESConfiguration(userPW, ownerPW, 256)
	case RC4128:
		conf = model.NewRC4Configuration(userPW, ownerPW, 128)
	}
	if err := api.EncryptFile(path, "", conf); err != nil {
		t.Fatalf("encrypting %s: %v", path, err)
	}
}

// Write builds d into dir/name and returns the path.
func Write(t testing.TB, dir, name string, d Doc) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(d), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
