// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// RawImage is an embedded image object referenced by a page.
type RawImage struct {
	// Name is the XObject resource name on the page.
	Name  string
	ObjNr int

	Width            int
	Height           int
	Format           string
	ColorSpace       string
	BitsPerComponent int

	// Data is the image re-encoded to Format; nil when no payload could be read.
	Data []byte
}

// readContext parses and validates the document with pdfcpu.
func readContext(rs io.ReadSeeker) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

// isPasswordError reports whether a pdfcpu error comes from encryption.
func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// pageImages extracts the images of one page through pdfcpu, sorted by
// object number.
func pageImages(ctx *model.Context, pageNr int) ([]RawImage, error) {
	imgs, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("extracting images of page %d: %w", pageNr, err)
	}
	out := make([]RawImage, 0, len(imgs))
	for objNr, img := range imgs {
		raw := RawImage{
			Name:             strings.TrimPrefix(img.Name, "/"),
			ObjNr:            objNr,
			Width:            img.Width,
			Height:           img.Height,
			Format:           normalizeFormat(img.FileType),
			ColorSpace:       img.Cs,
			BitsPerComponent: img.Bpc,
		}
		if img.Reader != nil {
			data, err := io.ReadAll(img.Reader)
			if err != nil {
				return nil, fmt.Errorf("reading image %d on page %d: %w", objNr, pageNr, err)
			}
			raw.Data = data
		}
		out = append(out, raw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjNr < out[j].ObjNr })
	return out, nil
}

// normalizeFormat maps pdfcpu file types to file extensions.
func normalizeFormat(fileType string) string {
	switch ft := strings.ToLower(strings.TrimPrefix(fileType, ".")); ft {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	default:
		return ft
	}
}
