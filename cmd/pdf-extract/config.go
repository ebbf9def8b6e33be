// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/pdf-extract/internal/convert"
	"github.com/pdiddy/pdf-extract/internal/ledger"
	"github.com/pdiddy/pdf-extract/internal/ocr"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// setDefaults registers the default of every configuration key.
func setDefaults() {
	d := types.DefaultExtractionConfig()
	viper.SetDefault("method", string(d.Method))
	viper.SetDefault("min_image_size", d.MinImageSize)
	viper.SetDefault("fallback_min_chars", d.FallbackMinChars)
	viper.SetDefault("low_yield_chars", d.LowYieldChars)
	viper.SetDefault("ocr.enabled", d.OCR.Enabled)
	viper.SetDefault("ocr.language", d.OCR.Language)
	viper.SetDefault("ledger.enabled", true)
	viper.SetDefault("ledger.path", defaultLedgerPath())
	viper.SetDefault("log.level", "info")

	l := d.Layout
	viper.SetDefault("layout.line_tolerance", l.LineTolerance)
	viper.SetDefault("layout.heading_ratio", l.HeadingRatio)
	viper.SetDefault("layout.max_heading_depth", l.MaxHeadingDepth)
	viper.SetDefault("layout.max_heading_words", l.MaxHeadingWords)
	viper.SetDefault("layout.column_min_gap", l.ColumnMinGap)
	viper.SetDefault("layout.column_min_rows", l.ColumnMinRows)
	viper.SetDefault("layout.column_row_share", l.ColumnRowShare)
	viper.SetDefault("layout.column_max_cross", l.ColumnMaxCross)
	viper.SetDefault("layout.table_align_tolerance", l.TableAlignTolerance)
	viper.SetDefault("layout.table_cell_gap", l.TableCellGap)
	viper.SetDefault("layout.list_indent_step", l.ListIndentStep)
	viper.SetDefault("layout.paragraph_gap", l.ParagraphGap)
	viper.SetDefault("layout.page_failure_threshold", l.PageFailureThreshold)
}

func defaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pdf-extract-history.db"
	}
	return filepath.Join(home, ".config", "pdf-extract", "history.db")
}

// bindExtractionFlags binds the extraction flags of cmd to their
// configuration keys. Binding happens when the command runs so that
// commands sharing a flag name do not override each other.
func bindExtractionFlags(cmd *cobra.Command) {
	for key, flag := range map[string]string{
		"pages":          "pages",
		"method":         "method",
		"min_image_size": "min-image-size",
		"ocr.enabled":    "ocr",
		"ocr.language":   "ocr-language",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			viper.BindPFlag(key, f)
		}
	}
}

// addExtractionFlags registers the flags shared by every command that runs
// the pipeline.
func addExtractionFlags(cmd *cobra.Command) {
	cmd.Flags().String("method", "auto", "extraction strategy: auto, primary or fallback")
	cmd.Flags().Int("min-image-size", 10, "minimum image width or height in pixels (0 keeps every image)")
	cmd.Flags().Bool("ocr", false, "recognise text in scanned pages (requires a build with -tags ocr)")
	cmd.Flags().String("ocr-language", "eng", "tesseract language code")
	cmd.Flags().Bool("no-history", false, "do not record the run in the history ledger")
}

// extractionConfig builds the immutable extraction configuration from the
// resolved configuration keys. The pages key only applies to commands that
// extract a single document; the others always read every page.
func extractionConfig(withPages bool) (types.ExtractionConfig, error) {
	var rng types.PageRange
	if withPages {
		var err error
		if rng, err = types.ParsePageRange(viper.GetString("pages")); err != nil {
			return types.ExtractionConfig{}, err
		}
	}
	method, err := types.ParseMethod(viper.GetString("method"))
	if err != nil {
		return types.ExtractionConfig{}, err
	}
	minSize := viper.GetInt("min_image_size")
	if minSize < 0 {
		return types.ExtractionConfig{}, fmt.Errorf("min-image-size must not be negative, got %d", minSize)
	}

	cfg := types.ExtractionConfig{
		Pages:            rng,
		Method:           method,
		MinImageSize:     minSize,
		FallbackMinChars: viper.GetInt("fallback_min_chars"),
		LowYieldChars:    viper.GetInt("low_yield_chars"),
		Layout: types.LayoutConfig{
			LineTolerance:        viper.GetFloat64("layout.line_tolerance"),
			HeadingRatio:         viper.GetFloat64("layout.heading_ratio"),
			MaxHeadingDepth:      viper.GetInt("layout.max_heading_depth"),
			MaxHeadingWords:      viper.GetInt("layout.max_heading_words"),
			ColumnMinGap:         viper.GetFloat64("layout.column_min_gap"),
			ColumnMinRows:        viper.GetInt("layout.column_min_rows"),
			ColumnRowShare:       viper.GetFloat64("layout.column_row_share"),
			ColumnMaxCross:       viper.GetFloat64("layout.column_max_cross"),
			TableAlignTolerance:  viper.GetFloat64("layout.table_align_tolerance"),
			TableCellGap:         viper.GetFloat64("layout.table_cell_gap"),
			ListIndentStep:       viper.GetFloat64("layout.list_indent_step"),
			ParagraphGap:         viper.GetFloat64("layout.paragraph_gap"),
			PageFailureThreshold: viper.GetFloat64("layout.page_failure_threshold"),
		},
		OCR: types.OCRConfig{
			Enabled:  viper.GetBool("ocr.enabled"),
			Language: viper.GetString("ocr.language"),
		},
	}
	return cfg.WithDefaults(), nil
}

// ledgerConfig returns the ledger settings; --no-history on cmd disables it.
func ledgerConfig(cmd *cobra.Command) types.LedgerConfig {
	cfg := types.LedgerConfig{
		Enabled: viper.GetBool("ledger.enabled"),
		Path:    viper.GetString("ledger.path"),
	}
	if off, _ := cmd.Flags().GetBool("no-history"); off {
		cfg.Enabled = false
	}
	return cfg
}

// newLogger builds the process logger: JSON at the configured level, or a
// development logger when verbose.
func newLogger() (*zap.Logger, error) {
	if viper.GetBool("log.verbose") {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// newPipeline assembles the pipeline for cmd with its optional OCR engine
// and ledger. The returned cleanup releases both.
func newPipeline(cmd *cobra.Command, logger *zap.Logger) (*convert.Pipeline, func(), error) {
	bindExtractionFlags(cmd)
	withPages := cmd.Flags().Lookup("pages") != nil
	cfg, err := extractionConfig(withPages)
	if err != nil {
		return nil, nil, err
	}
	if pages := viper.GetString("pages"); !withPages && pages != "" {
		logger.Warn("ignoring configured page range, this command reads every page",
			zap.String("command", cmd.Name()), zap.String("pages", pages))
	}

	opts := convert.Options{Version: version, Logger: logger}
	var closers []func() error

	if cfg.OCR.Enabled {
		client, err := ocr.New(cfg.OCR.Language)
		if err != nil {
			logger.Warn("OCR unavailable, scanned pages stay empty", zap.Error(err))
		} else {
			opts.Recognizer = client
			closers = append(closers, client.Close)
		}
	}

	if lc := ledgerConfig(cmd); lc.Enabled && lc.Path != "" {
		l, err := ledger.Open(lc.Path)
		if err != nil {
			logger.Warn("history ledger unavailable", zap.String("path", lc.Path), zap.Error(err))
		} else {
			opts.Recorder = l
			closers = append(closers, l.Close)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return convert.New(cfg, opts), cleanup, nil
}
