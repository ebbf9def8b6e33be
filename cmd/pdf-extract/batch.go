// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/convert"
)

var batchCmd = &cobra.Command{
	Use:   "batch DIR OUTROOT",
	Short: "Extract every PDF in a directory",
	Long: `Batch extracts each *.pdf file in DIR into OUTROOT/<name>_extracted.
Files whose Markdown output already exists are skipped unless --force is
given. Every page of each file is extracted; a pages setting from the
configuration file or environment is ignored. A summary of converted,
skipped and failed files is printed at the end; the command fails when any
file failed.`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	inputs, err := convert.FindPDFs(args[0])
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Fprintf(os.Stderr, "no PDF files in %s\n", args[0])
		return nil
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

	result := convert.ConvertBatch(cmd.Context(), p, inputs, args[1], force, os.Stderr)
	if result.HasFailures() {
		return fmt.Errorf("%d of %d file(s) failed extraction", result.Failed, result.Total())
	}
	return nil
}

func init() {
	batchCmd.Flags().Bool("force", false, "re-extract files whose output already exists")
	addExtractionFlags(batchCmd)

	rootCmd.AddCommand(batchCmd)
}
