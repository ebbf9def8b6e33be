// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extract/internal/images"
	"github.com/pdiddy/pdf-extract/internal/layout"
	"github.com/pdiddy/pdf-extract/internal/ledger"
	"github.com/pdiddy/pdf-extract/internal/metadata"
	"github.com/pdiddy/pdf-extract/internal/output"
	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/internal/raster"
	"github.com/pdiddy/pdf-extract/internal/strategy"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// mmPerPoint converts PDF points to millimetres.
const mmPerPoint = 25.4 / 72

// Recorder stores finished runs. It is satisfied by *ledger.Ledger.
type Recorder interface {
	Record(ctx context.Context, run ledger.Run) (string, error)
}

// Options carries the collaborators of a Pipeline. Every field is optional.
type Options struct {
	// Version is recorded in the metadata as the tool version.
	Version string

	// Recognizer enables OCR in the fallback strategy.
	Recognizer raster.Recognizer

	// Recorder receives one entry per run, successful or not.
	Recorder Recorder

	Logger *zap.Logger
}

// Report summarizes one extraction run.
type Report struct {
	RunID          string         `json:"run_id"`
	Input          string         `json:"input"`
	OutputDir      string         `json:"output_dir"`
	Method         types.Method   `json:"method"`
	FallbackReason string         `json:"fallback_reason,omitempty"`
	Forced         bool           `json:"forced"`
	Pages          int            `json:"pages"`
	Images         int            `json:"images"`
	FilteredImages int            `json:"filtered_images"`
	LowTextYield   bool           `json:"low_text_yield"`
	EmptyTextPages []int          `json:"empty_text_pages,omitempty"`
	Files          output.Result  `json:"files"`
	Trace          strategy.Trace `json:"-"`
	Duration       time.Duration  `json:"duration_ns"`
}

// Pipeline extracts one PDF into an output directory: page access, image
// extraction, strategy selection, metadata synthesis and output assembly.
// It is safe for sequential reuse across documents.
type Pipeline struct {
	cfg      types.ExtractionConfig
	version  string
	selector *strategy.Selector
	images   *images.Extractor
	recorder Recorder
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Pipeline for cfg. Zero-valued settings take their defaults.
func New(cfg types.ExtractionConfig, opts Options) *Pipeline {
	cfg = cfg.WithDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	primary := layout.New(cfg.Layout, logger.Named("layout"))
	fallback := raster.New(opts.Recognizer, logger.Named("raster"))
	return &Pipeline{
		cfg:      cfg,
		version:  opts.Version,
		selector: strategy.New(primary, fallback, cfg.FallbackMinChars, logger.Named("strategy")),
		images:   images.New(cfg.MinImageSize, logger.Named("images")),
		recorder: opts.Recorder,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() types.ExtractionConfig { return p.cfg }

// With returns a Pipeline for cfg that shares p's collaborators.
func (p *Pipeline) With(cfg types.ExtractionConfig) *Pipeline {
	q := New(cfg, p.opts)
	q.now = p.now
	return q
}

// Convert extracts input into outDir. Document-level failures are returned
// as *types.Error; the run is recorded either way when a Recorder is set.
func (p *Pipeline) Convert(ctx context.Context, input, outDir string) (*Report, error) {
	start := p.now()
	rep := &Report{RunID: uuid.NewString(), Input: input, OutputDir: outDir}
	log := p.logger.With(zap.String("run_id", rep.RunID), zap.String("file", input))

	doc, trace, err := p.Extract(ctx, input, outDir)
	rep.Trace = trace
	if err == nil {
		rep.Files, err = output.Write(doc, outDir)
	}
	rep.Duration = p.now().Sub(start)

	if doc != nil {
		m := doc.Metadata
		rep.Method = m.Method
		rep.FallbackReason = m.FallbackReason
		rep.Forced = doc.Forced
		rep.Pages = m.TotalPages
		rep.Images = m.TotalImages
		rep.FilteredImages = m.FilteredImages
		rep.LowTextYield = m.LowTextYield
		rep.EmptyTextPages = m.EmptyTextPages
	}
	p.record(ctx, rep, doc, start, err)

	if err != nil {
		log.Error("extraction failed", zap.Error(err))
		return rep, err
	}
	log.Info("extraction complete",
		zap.String("method", string(rep.Method)),
		zap.String("fallback_reason", rep.FallbackReason),
		zap.Int("pages", rep.Pages),
		zap.Int("images", rep.Images),
		zap.Int("filtered_images", rep.FilteredImages),
		zap.Bool("low_text_yield", rep.LowTextYield),
		zap.Duration("duration", rep.Duration))
	return rep, nil
}

// Extract builds the Document for input without writing anything. outDir
// is only recorded in the metadata. The strategy trace is returned even
// when extraction fails.
func (p *Pipeline) Extract(ctx context.Context, input, outDir string) (*types.Document, strategy.Trace, error) {
	src, err := pdfdoc.Open(input, p.logger.Named("pdfdoc"))
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	cur, err := src.Pages(p.cfg.Pages)
	if err != nil {
		return nil, nil, err
	}

	var (
		raw     []*pdfdoc.RawPage
		assets  []types.ImageAsset
		anchors = map[int][]types.ImageAnchor{}
	)
	for cur.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rp := cur.Page()
		imgs, anc := p.images.ExtractPage(rp)
		assets = append(assets, imgs...)
		anchors[rp.Index] = anc
		raw = append(raw, rp)
	}

	res, err := p.selector.Select(ctx, p.cfg.Method, raw)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, res.Trace, err
		}
		e := types.NewError(types.KindExtractionFailed, input, types.StageExtract, err)
		e.Attempted = res.Decision.Attempted
		return nil, res.Trace, e
	}

	info := src.Info()
	if info.Version == "" {
		info.Version = src.Version()
	}
	outline := src.Outline()
	doc := &types.Document{
		SourcePath:     input,
		SizeBytes:      src.Size(),
		SHA256:         src.SHA256(),
		ExtractedAt:    p.now().UTC(),
		PageCount:      src.PageCount(),
		Range:          cur.Range(),
		HasOutline:     len(outline) > 0,
		HasForms:       src.HasForms(),
		Method:         res.Decision.Method,
		FallbackReason: res.Decision.FallbackReason,
		Forced:         res.Decision.Forced,
		Pages:          res.Pages,
		Images:         assets,
		Info:           info,
		Outline:        outline,
		Warnings:       append([]string(nil), src.Warnings()...),
	}

	byIndex := make(map[int]*pdfdoc.RawPage, len(raw))
	for _, rp := range raw {
		byIndex[rp.Index] = rp
	}
	fonts := map[string][]int{}
	for i := range doc.Pages {
		pg := &doc.Pages[i]
		pg.Anchors = anchors[pg.Index]
		rp, ok := byIndex[pg.Index]
		if !ok {
			continue
		}
		pg.Info = pageInfo(rp)
		doc.Annotations = append(doc.Annotations, rp.Annotations...)
		doc.Links = append(doc.Links, rp.Links...)
		for _, name := range rp.Fonts {
			if used := fonts[name]; len(used) == 0 || used[len(used)-1] != rp.Index {
				fonts[name] = append(used, rp.Index)
			}
		}
		for _, perr := range rp.Errors {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: %v", rp.Index, perr))
		}
	}
	doc.Fonts = fontList(fonts)

	m, err := metadata.Synthesize(doc, metadata.Options{
		MinImageSize:  p.cfg.MinImageSize,
		LowYieldChars: p.cfg.LowYieldChars,
		OutputDir:     outDir,
		Version:       p.version,
	})
	if err != nil {
		return nil, res.Trace, types.NewError(types.KindExtractionFailed, input, types.StageExtract, err)
	}
	doc.Metadata = m
	return doc, res.Trace, nil
}

// record stores the run in the ledger. Ledger failures are logged and
// never fail the extraction.
func (p *Pipeline) record(ctx context.Context, rep *Report, doc *types.Document, start time.Time, runErr error) {
	if p.recorder == nil {
		return
	}
	run := ledger.Run{
		ID:             rep.RunID,
		Input:          rep.Input,
		OutputDir:      rep.OutputDir,
		Method:         rep.Method,
		FallbackReason: rep.FallbackReason,
		Pages:          rep.Pages,
		Images:         rep.Images,
		FilteredImages: rep.FilteredImages,
		LowTextYield:   rep.LowTextYield,
		Status:         ledger.StatusOK,
		StartedAt:      start,
		Duration:       rep.Duration,
	}
	if doc != nil {
		run.SHA256 = doc.SHA256
	}
	if runErr != nil {
		run.Status = ledger.StatusFailed
		run.Error = runErr.Error()
		if kind, ok := types.KindOf(runErr); ok {
			run.ErrorKind = string(kind)
		}
	}
	if _, err := p.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		p.logger.Warn("recording run failed", zap.String("run_id", rep.RunID), zap.Error(err))
	}
}

// pageInfo converts raw page geometry into PageInfo. Text and image
// counters are filled in by the metadata synthesizer.
func pageInfo(rp *pdfdoc.RawPage) types.PageInfo {
	return types.PageInfo{
		Number:          rp.Index,
		WidthPt:         rp.Width,
		HeightPt:        rp.Height,
		WidthMM:         toMM(rp.Width),
		HeightMM:        toMM(rp.Height),
		Rotation:        rp.Rotation,
		AnnotationCount: len(rp.Annotations) + len(rp.Links),
	}
}

// toMM converts points to millimetres rounded to one decimal.
func toMM(pt float64) float64 {
	return math.Round(pt*mmPerPoint*10) / 10
}

func fontList(fonts map[string][]int) []types.FontInfo {
	if len(fonts) == 0 {
		return nil
	}
	out := make([]types.FontInfo, 0, len(fonts))
	for name, pages := range fonts {
		out = append(out, types.FontInfo{Name: name, PagesUsed: pages})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
