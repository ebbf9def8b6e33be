// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-extract CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdf-extract CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-extract",
	Short: "Extract text, images and metadata from PDF files",
	Long: `pdf-extract turns a PDF into a Markdown file with YAML frontmatter, a
metadata.json record and an images/ directory.

Extraction first tries a layout-aware strategy that recovers headings,
paragraphs, lists and tables. Documents where it fails or yields no text
fall back to a plain reflow of the page text, optionally with OCR.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-extract.yaml or ~/.config/pdf-extract/pdf-extract.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level in human-readable form")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	viper.BindPFlag("log.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf-extract")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf-extract"))
		}
	}

	viper.SetEnvPrefix("PDF_EXTRACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(types.ExitCode(err))
	}
}
