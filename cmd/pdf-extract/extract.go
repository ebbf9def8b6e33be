// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/convert"
)

var extractCmd = &cobra.Command{
	Use:   "extract INPUT [OUTPUT]",
	Short: "Extract one PDF into Markdown, metadata and images",
	Long: `Extract reads INPUT and writes OUTPUT/<name>.md, OUTPUT/metadata.json and
OUTPUT/images/. OUTPUT defaults to <name>_extracted next to the input.

Exit codes: 0 success, 1 usage, 2 invalid document, 3 protected document,
4 invalid page range, 5 extraction failed, 6 output write failed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	input := args[0]
	outDir := convert.OutputDir(input, "")
	if len(args) == 2 {
		outDir = args[1]
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, cleanup, err := newPipeline(cmd, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := p.Convert(cmd.Context(), input, outDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "extracted: %s -> %s (%s, %d pages, %d images, %d filtered)\n",
		convert.Stem(input), outDir, rep.Method, rep.Pages, rep.Images, rep.FilteredImages)
	if rep.FallbackReason != "" {
		fmt.Fprintf(os.Stderr, "fallback reason: %s\n", rep.FallbackReason)
	}
	if rep.LowTextYield {
		fmt.Fprintln(os.Stderr, "warning: low text yield, the document may be scanned")
	}
	return nil
}

func init() {
	extractCmd.Flags().String("pages", "", "inclusive page range START-END (default: all pages)")
	addExtractionFlags(extractCmd)

	rootCmd.AddCommand(extractCmd)
}
