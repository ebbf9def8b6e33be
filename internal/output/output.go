// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output assembles an extracted Document into its on-disk form: a
// Markdown file with YAML frontmatter, metadata.json, and the kept images.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

const (
	// imagesDir is the subdirectory for kept image files.
	imagesDir = "images"
	// metadataFile is the structured metadata record.
	metadataFile = "metadata.json"
)

// Result lists the files written for one Document.
type Result struct {
	Dir      string   `json:"dir"`
	Markdown string   `json:"markdown"`
	Metadata string   `json:"metadata"`
	Images   []string `json:"images,omitempty"`
}

// Write renders doc into dir, creating it if needed and overwriting existing
// files. Every failure is an OutputWriteFailed error; files written before
// the failure are left in place.
func Write(doc *types.Document, dir string) (Result, error) {
	res, err := write(doc, dir)
	if err != nil {
		return res, types.NewError(types.KindOutputWriteFailed, doc.SourcePath, types.StageSave, err)
	}
	return res, nil
}

func write(doc *types.Document, dir string) (Result, error) {
	res := Result{
		Dir:      dir,
		Markdown: filepath.Join(dir, doc.Name()+".md"),
		Metadata: filepath.Join(dir, metadataFile),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("creating output directory: %w", err)
	}

	images, err := writeImages(doc, filepath.Join(dir, imagesDir))
	res.Images = images
	if err != nil {
		return res, err
	}

	md, err := Render(doc)
	if err != nil {
		return res, err
	}
	if err := os.WriteFile(res.Markdown, []byte(md), 0o644); err != nil {
		return res, fmt.Errorf("writing markdown: %w", err)
	}

	data, err := json.MarshalIndent(doc.Metadata, "", "  ")
	if err != nil {
		return res, fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := os.WriteFile(res.Metadata, append(data, '\n'), 0o644); err != nil {
		return res, fmt.Errorf("writing metadata: %w", err)
	}
	return res, nil
}

// imageGlob matches the image files this package writes.
const imageGlob = "page*_img*"

// writeImages writes each kept image with a payload as <id>.<ext>, after
// removing image files left by an earlier run. The directory is removed
// again when it ends up empty.
func writeImages(doc *types.Document, dir string) ([]string, error) {
	if err := clearImages(dir); err != nil {
		return nil, err
	}
	var kept []types.ImageAsset
	for _, img := range doc.KeptImages() {
		if img.HasFile() {
			kept = append(kept, img)
		}
	}
	if len(kept) == 0 {
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) && !isNotEmpty(dir) {
			return nil, fmt.Errorf("removing empty images directory: %w", err)
		}
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating images directory: %w", err)
	}
	var written []string
	for _, img := range kept {
		path := filepath.Join(dir, img.Filename())
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return written, fmt.Errorf("writing image %s: %w", img.ID, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// clearImages deletes earlier image files from dir. Files it did not write
// are left alone.
func clearImages(dir string) error {
	stale, err := filepath.Glob(filepath.Join(dir, imageGlob))
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale image: %w", err)
		}
	}
	return nil
}

// isNotEmpty reports whether dir exists and still holds entries from an
// earlier run.
func isNotEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
