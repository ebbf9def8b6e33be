// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr recognises text in page images for scanned documents without
// a text layer.
//
// Recognition wraps the Tesseract engine through gosseract and is only
// compiled with the "ocr" build tag:
//
//	go build -tags ocr ./cmd/pdf-extract
//
// Tesseract and its language data must be installed. Without the tag every
// constructor returns ErrOCRNotEnabled.
package ocr

import "errors"

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")
