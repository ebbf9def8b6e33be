// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build ocr

package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether OCR support is compiled in.
const Enabled = true

// Client wraps one Tesseract instance. It is not safe for concurrent use.
type Client struct {
	client *gosseract.Client
}

// New creates a client for the given Tesseract language code, e.g. "eng"
// or "eng+deu". Close releases it.
func New(lang string) (*Client, error) {
	c := gosseract.NewClient()
	if lang != "" {
		if err := c.SetLanguage(lang); err != nil {
			c.Close()
			return nil, fmt.Errorf("setting OCR language %q: %w", lang, err)
		}
	}
	return &Client{client: c}, nil
}

// Close releases the Tesseract instance.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Recognize returns the text in an encoded image (PNG, JPEG, TIFF and the
// other formats leptonica reads), trimmed of surrounding whitespace.
func (c *Client) Recognize(image []byte) (string, error) {
	if err := c.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("loading image for OCR: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
