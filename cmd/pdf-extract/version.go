// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/ocr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pdf-extract",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pdf-extract %s (ocr: %t)\n", version, ocr.Enabled)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
