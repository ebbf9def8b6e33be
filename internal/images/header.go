// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeHeader reads the dimensions and format of an encoded image without
// decoding its pixels.
func decodeHeader(data []byte) (width, height int, format string, ok bool) {
	if len(data) == 0 {
		return 0, 0, "", false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", false
	}
	return cfg.Width, cfg.Height, extension(format), true
}

// extension maps image package format names to file extensions.
func extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	}
	return format
}
