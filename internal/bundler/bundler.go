// Package bundler builds a temple project natively with esbuild, driven by the
// same configuration record that is rendered as webpack.config.js: rules become
// loader chains and the html plugin writes the page referencing the bundles.
package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/fsutil"
	"github.com/wolfeidau/temple/internal/telemetry"
)

type options struct {
	minify       bool
	sourceMap    bool
	metafilePath string
	inlineScript string
}

// Option configures a Pipeline.
type Option func(*options)

// WithMinify minifies JS and CSS output.
func WithMinify(minify bool) Option {
	return func(o *options) { o.minify = minify }
}

// WithSourceMap writes linked source maps next to the bundle.
func WithSourceMap(sourceMap bool) Option {
	return func(o *options) { o.sourceMap = sourceMap }
}

// WithMetafile writes esbuild's metafile to path after each build.
func WithMetafile(path string) Option {
	return func(o *options) { o.metafilePath = path }
}

// WithInlineScript appends an inline script to generated html pages. The dev
// server uses it for its live-reload client.
func WithInlineScript(js string) Option {
	return func(o *options) { o.inlineScript = js }
}

// Pipeline manages the build and the metadata of the last successful build.
type Pipeline struct {
	config   buildconfig.Config
	opts     options
	metadata *BuildMetadata
	mu       sync.RWMutex
}

// New creates a pipeline for cfg. Relative paths in cfg resolve against its context.
func New(cfg buildconfig.Config, opts ...Option) *Pipeline {
	p := &Pipeline{config: cfg.Resolved()}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// Config returns the resolved configuration the pipeline builds.
func (p *Pipeline) Config() buildconfig.Config {
	return p.config
}

// Build runs esbuild with the configured settings, loads the metadata and runs
// the plugins.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "bundler.Build",
		trace.WithAttributes(attribute.String("temple.entry", p.config.Entry)))
	defer span.End()

	metrics := telemetry.GetMetrics()
	started := time.Now()

	res, err := p.build(ctx)

	metrics.BuildsTotal.Add(ctx, 1)
	metrics.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()))
	if err != nil {
		metrics.BuildErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.OutputBytes.Record(ctx, res.Bytes)
	span.SetAttributes(
		attribute.Int("temple.files", len(res.Files)),
		attribute.String("temple.fingerprint", res.Fingerprint),
	)
	return res, nil
}

func (p *Pipeline) build(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	cfg := p.config

	workDir := cfg.Context
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}

	rules, err := compileRules(cfg.Module.Rules)
	if err != nil {
		return nil, err
	}

	buildOpts := api.BuildOptions{
		AbsWorkingDir:     workDir,
		EntryPoints:       []string{cfg.Entry},
		Outfile:           cfg.OutputFile(),
		Bundle:            true,
		Write:             true,
		Format:            api.FormatIIFE,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		ResolveExtensions: cfg.Resolve.Extensions,
		MinifyWhitespace:  p.opts.minify,
		MinifyIdentifiers: p.opts.minify,
		MinifySyntax:      p.opts.minify,
		Sourcemap:         cond(p.opts.sourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
		Plugins:           []api.Plugin{rulesPlugin(rules, p.opts)},
	}

	tsconfig := filepath.Join(workDir, "tsconfig.json")
	if ok, _ := fsutil.Exists(tsconfig); ok {
		buildOpts.Tsconfig = tsconfig
	}

	log.Info().Str("entrypoint", cfg.Entry).Str("outfile", buildOpts.Outfile).Msg("Building assets")

	result := api.Build(buildOpts)

	for _, msg := range result.Warnings {
		logMessage(log.Warn(), msg).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			logMessage(log.Error(), msg).Msg("Build error")
		}
		return nil, fmt.Errorf("%w: %s", ErrBuildFailed, result.Errors[0].Text)
	}

	res := &Result{Warnings: len(result.Warnings)}
	sum := crc64nvme.New()
	for _, file := range result.OutputFiles {
		log.Info().Str("file", file.Path).Int("bytes", len(file.Contents)).Msg("Built file")
		res.Files = append(res.Files, file.Path)
		res.Bytes += int64(len(file.Contents))
		sum.Write(file.Contents)
	}

	if p.opts.metafilePath != "" {
		if err := fsutil.WriteFile(p.opts.metafilePath, []byte(result.Metafile), 0600); err != nil {
			return nil, err
		}
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	p.metadata = &metadata

	entryPoint, err := filepath.Rel(workDir, cfg.Entry)
	if err != nil {
		return nil, err
	}

	outputs, err := p.loadOutputs(filepath.ToSlash(entryPoint))
	if err != nil {
		return nil, err
	}

	outDir := cfg.Output.Path
	for _, out := range outputs {
		rel, err := filepath.Rel(outDir, filepath.Join(workDir, out))
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		if filepath.Ext(out) == ".css" {
			res.Styles = append(res.Styles, rel)
		} else {
			res.Scripts = append(res.Scripts, rel)
		}
	}

	pages, err := writePages(cfg, res.Scripts, res.Styles, p.opts.inlineScript)
	if err != nil {
		return nil, err
	}
	for _, pg := range pages {
		res.Pages = append(res.Pages, pg.path)
		sum.Write(pg.data)
	}
	res.Fingerprint = base58.Encode(sum.Sum(nil))

	res.Duration = time.Since(started)
	log.Info().
		Dur("duration", res.Duration).
		Int("files", len(res.Files)).
		Str("fingerprint", res.Fingerprint).
		Msg("Build complete")

	return res, nil
}

// Metadata returns the metafile of the last successful build.
func (p *Pipeline) Metadata() (*BuildMetadata, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}
	return p.metadata, nil
}

// loadOutputs returns the metafile output paths for the entry point: its JS
// output, the chunks it imports, then its CSS bundle.
func (p *Pipeline) loadOutputs(entryPoint string) ([]string, error) {
	if p.metadata == nil {
		return nil, ErrNotBuilt
	}

	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint != entryPoint || filepath.Ext(outputPath) == ".map" {
			continue
		}

		outputs := []string{outputPath}
		visited := map[string]bool{outputPath: true}
		p.addDependencies(info, &outputs, visited)

		if info.CSSBundle != "" && !visited[info.CSSBundle] {
			outputs = append(outputs, info.CSSBundle)
		}
		return outputs, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrEntryNotInMetadata, entryPoint)
}

func (p *Pipeline) addDependencies(output OutputInfo, outputs *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if visited[imp.Path] {
			continue
		}
		chunkInfo, exists := p.metadata.Outputs[imp.Path]
		if !exists {
			// external or runtime import, not a file we produced
			continue
		}
		visited[imp.Path] = true
		*outputs = append(*outputs, imp.Path)
		p.addDependencies(chunkInfo, outputs, visited)
	}
}

func logMessage(evt *zerolog.Event, msg api.Message) *zerolog.Event {
	evt = evt.Str("text", msg.Text)
	if msg.Location != nil {
		evt = evt.Str("file", msg.Location.File).Int("line", msg.Location.Line).Int("column", msg.Location.Column)
	}
	return evt
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
