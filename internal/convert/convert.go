// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert wires the extraction components into a pipeline and runs
// it over single files, directories of PDFs, and MCP tool calls.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// outputSuffix is appended to the input stem to name its output directory.
const outputSuffix = "_extracted"

// Converter extracts a PDF file into an output directory. The Pipeline is
// the production implementation.
type Converter interface {
	Convert(ctx context.Context, input, outDir string) (*Report, error)
}

// Status is the outcome of converting one file in a batch.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Stem returns the file name of path without directory or extension.
func Stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// OutputDir returns the default output directory for input: a sibling
// "<stem>_extracted" directory, or one under root when root is set.
func OutputDir(input, root string) string {
	if root == "" {
		root = filepath.Dir(input)
	}
	return filepath.Join(root, Stem(input)+outputSuffix)
}

// ConvertFile extracts one PDF into its output directory under root,
// printing a status line to w. Existing output is skipped unless force is
// set.
func ConvertFile(ctx context.Context, c Converter, input, root string, force bool, w io.Writer) Status {
	base := Stem(input)
	outDir := OutputDir(input, root)
	mdPath := filepath.Join(outDir, base+".md")

	if !force {
		if _, err := os.Stat(mdPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
			return StatusSkipped
		}
	}

	rep, err := c.Convert(ctx, input, outDir)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	fmt.Fprintf(w, "extracted: %s (%s, %d pages, %d images)\n", base, rep.Method, rep.Pages, rep.Images)
	return StatusConverted
}

// ConvertBatch processes a list of PDFs through the converter, printing
// per-file status to w and returning a summary. A cancelled context stops
// the batch before the next file.
func ConvertBatch(ctx context.Context, c Converter, inputs []string, root string, force bool, w io.Writer) BatchResult {
	var result BatchResult
	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		switch ConvertFile(ctx, c, input, root, force, w) {
		case StatusConverted:
			result.Converted++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// FindPDFs lists the *.pdf files directly inside dir, sorted by name. The
// extension match is case-insensitive.
func FindPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
