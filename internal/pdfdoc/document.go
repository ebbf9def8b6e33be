// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc opens PDF documents and exposes their pages as raw content:
// positioned text runs, rectangles, image objects and draw positions,
// annotations and fonts. It isolates the rest of the module from the
// parsing libraries.
package pdfdoc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// signature is the required prefix of every PDF file.
const signature = "%PDF-"

// Document is an open PDF. It owns the file handle until Close.
type Document struct {
	path   string
	file   *os.File
	size   int64
	sha256 string
	header []byte

	reader *pdf.Reader
	ctx    *model.Context
	logger *zap.Logger

	warnings []string
}

// Open validates and opens the PDF at path. It fails with
// types.ErrDocumentInvalid for a bad signature or unparsable structure and
// types.ErrDocumentProtected for encrypted documents that cannot be read
// without a password. Encrypted documents with an empty user password are
// decrypted in memory. The file handle is released on every error path.
func Open(path string, logger *zap.Logger) (doc *Document, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.KindDocumentInvalid, path, types.StageOpen, err)
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, types.NewError(types.KindDocumentInvalid, path, types.StageOpen, err)
	}

	head := make([]byte, 16)
	n, _ := io.ReadFull(f, head)
	head = head[:n]
	if !bytes.HasPrefix(head, []byte(signature)) {
		return nil, types.NewError(types.KindDocumentInvalid, path, types.StageValidation,
			errors.New("missing %PDF- signature"))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, types.NewError(types.KindDocumentInvalid, path, types.StageOpen, err)
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, types.NewError(types.KindDocumentInvalid, path, types.StageOpen, err)
	}

	var (
		src      io.ReadSeeker = f
		warnings []string
	)
	reader, err := newReader(f, info.Size())
	if err != nil {
		plain, kind, derr := decrypt(f, err)
		if derr != nil {
			return nil, types.NewError(kind, path, types.StageOpen, derr)
		}
		br := bytes.NewReader(plain)
		if reader, err = newReader(br, br.Size()); err != nil {
			return nil, types.NewError(types.KindDocumentProtected, path, types.StageOpen, err)
		}
		src = br
		warnings = append(warnings, "encrypted document opened without a user password")
		logger.Info("decrypted document in memory", zap.String("file", path))
	}

	doc = &Document{
		path:     path,
		file:     f,
		size:     info.Size(),
		sha256:   hex.EncodeToString(h.Sum(nil)),
		header:   head,
		reader:   reader,
		logger:   logger,
		warnings: warnings,
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, types.NewError(types.KindDocumentInvalid, path, types.StageOpen, err)
	}
	ctx, verr := readContext(src)
	switch {
	case verr == nil:
		doc.ctx = ctx
	case isPasswordError(verr):
		return nil, types.NewError(types.KindDocumentProtected, path, types.StageValidation, verr)
	default:
		msg := fmt.Sprintf("validation failed, image payloads unavailable: %v", verr)
		doc.warnings = append(doc.warnings, msg)
		logger.Warn("pdf validation failed", zap.String("file", path), zap.Error(verr))
	}

	return doc, nil
}

// newReader wraps the ledongthuc parser, which panics on some malformed
// cross-reference tables.
func newReader(f io.ReaderAt, size int64) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed PDF structure: %v", p)
		}
	}()
	r, err = pdf.NewReader(normalizeHeader(f), size)
	if err != nil {
		return nil, err
	}
	if r.NumPage() < 1 {
		return nil, errors.New("page tree is empty")
	}
	return r, nil
}

// decrypt handles a document the primary parser rejected. Unencrypted
// documents stay invalid. Encrypted documents without a user password are
// decrypted into memory; any other encrypted document is protected.
func decrypt(rs io.ReadSeeker, cause error) ([]byte, types.ErrorKind, error) {
	if errors.Is(cause, pdf.ErrInvalidPassword) {
		return nil, types.KindDocumentProtected, cause
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, types.KindDocumentInvalid, cause
	}
	ctx, err := api.ReadContext(rs, model.NewDefaultConfiguration())
	if err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) || isPasswordError(err) {
			return nil, types.KindDocumentProtected, err
		}
		return nil, types.KindDocumentInvalid, cause
	}
	if ctx.Encrypt == nil {
		return nil, types.KindDocumentInvalid, cause
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, types.KindDocumentInvalid, cause
	}
	var buf bytes.Buffer
	if err := api.Decrypt(rs, &buf, model.NewDefaultConfiguration()); err != nil {
		return nil, types.KindDocumentProtected, fmt.Errorf("decrypting: %w", err)
	}
	return buf.Bytes(), "", nil
}

// headerReader presents a rewritten signature line to the parser, which
// only accepts "%PDF-1.0" through "%PDF-1.7" followed by a line break.
// The parser never reads objects from the header region.
type headerReader struct {
	r    io.ReaderAt
	head []byte
}

func (h *headerReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := h.r.ReadAt(p, off)
	for i := 0; i < n && off+int64(i) < int64(len(h.head)); i++ {
		p[i] = h.head[off+int64(i)]
	}
	return n, err
}

func normalizeHeader(f io.ReaderAt) io.ReaderAt {
	head := make([]byte, 9)
	if n, _ := f.ReadAt(head, 0); n < len(head) {
		return f
	}
	if bytes.HasPrefix(head, []byte("%PDF-1.")) && head[7] >= '0' && head[7] <= '7' &&
		(head[8] == '\r' || head[8] == '\n') {
		return f
	}
	return &headerReader{r: f, head: []byte("%PDF-1.7\n")}
}

// Close releases the file handle. It is safe to call more than once.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Path returns the source path.
func (d *Document) Path() string { return d.path }

// Size returns the file size in bytes.
func (d *Document) Size() int64 { return d.size }

// SHA256 returns the hex digest of the file contents.
func (d *Document) SHA256() string { return d.sha256 }

// Warnings returns document-level problems that did not prevent opening.
func (d *Document) Warnings() []string { return d.warnings }

// PageCount returns the number of pages in the page tree.
func (d *Document) PageCount() int { return d.reader.NumPage() }

// Version returns the header version, e.g. "1.7".
func (d *Document) Version() string { return headerVersion(d.header) }

// Info returns the information dictionary. Dates are converted to RFC 3339
// when they parse and kept verbatim otherwise.
func (d *Document) Info() (info types.DocInfo) {
	info.Version = d.Version()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("reading info dictionary", zap.Any("panic", r))
		}
	}()
	v := d.reader.Trailer().Key("Info")
	if v.Kind() != pdf.Dict {
		return info
	}
	get := func(key string) string {
		return strings.TrimSpace(normalizeText(v.Key(key).Text()))
	}
	date := func(key string) string {
		raw := get(key)
		if raw == "" {
			return ""
		}
		if iso, err := ParseDate(raw); err == nil {
			return iso
		}
		return raw
	}
	info.Title = get("Title")
	info.Author = get("Author")
	info.Subject = get("Subject")
	info.Keywords = get("Keywords")
	info.Creator = get("Creator")
	info.Producer = get("Producer")
	info.CreationDate = date("CreationDate")
	info.ModificationDate = date("ModDate")
	return info
}

// Outline returns the bookmark tree flattened in document order.
func (d *Document) Outline() (items []types.OutlineItem) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("reading outline", zap.Any("panic", r))
		}
	}()
	var walk func(o pdf.Outline, level int)
	walk = func(o pdf.Outline, level int) {
		for _, c := range o.Child {
			if title := strings.TrimSpace(normalizeText(c.Title)); title != "" {
				items = append(items, types.OutlineItem{Title: title, Level: level})
			}
			walk(c, level+1)
		}
	}
	walk(d.reader.Outline(), 0)
	return items
}

// HasForms reports whether the document has an interactive form with fields.
func (d *Document) HasForms() (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	fields := d.reader.Trailer().Key("Root").Key("AcroForm").Key("Fields")
	return fields.Kind() == pdf.Array && fields.Len() > 0
}

// Pages validates r against the page count and returns a cursor over the
// selected pages. The zero range selects every page.
func (d *Document) Pages(r types.PageRange) (*Cursor, error) {
	resolved, err := r.Resolve(d.PageCount())
	if err != nil {
		return nil, types.NewError(types.KindPageRangeInvalid, d.path, types.StageValidation, err)
	}
	return &Cursor{doc: d, rng: resolved, next: resolved.Start}, nil
}

// Cursor walks a page range once, reading each page on demand. It cannot
// be rewound.
type Cursor struct {
	doc  *Document
	rng  types.PageRange
	next int
	cur  *RawPage
}

// Range returns the resolved page range.
func (c *Cursor) Range() types.PageRange { return c.rng }

// Next reads the next page. It returns false when the range is exhausted
// or the document has been closed.
func (c *Cursor) Next() bool {
	if c.next > c.rng.End || c.doc.file == nil {
		c.cur = nil
		return false
	}
	c.cur = c.doc.readPage(c.next)
	c.next++
	return true
}

// Page returns the page read by the last call to Next.
func (c *Cursor) Page() *RawPage { return c.cur }
