// Package pipeline wires a source, a session and a rule builder into one
// conversion, and renders its output.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/tabrules/internal/bookmarks"
	"github.com/ppiankov/tabrules/internal/cache"
	"github.com/ppiankov/tabrules/internal/ids"
	"github.com/ppiankov/tabrules/internal/logging"
	"github.com/ppiankov/tabrules/internal/model"
	"github.com/ppiankov/tabrules/internal/rules"
	"github.com/ppiankov/tabrules/internal/session"
	"github.com/ppiankov/tabrules/internal/source"
	"github.com/rs/zerolog"
)

// Pipeline orchestrates source → adapter → session → builder
type Pipeline struct {
	registry *bookmarks.Registry
	fetcher  *source.Fetcher
	renderer *Renderer
	config   *model.Config
	stdin    io.Reader
	logger   zerolog.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	fetcher := source.NewFetcher(cfg.HTTP, cache.New(cfg.Cache)).WithCacheTTL(cfg.Cache.DiskTTL)

	return &Pipeline{
		registry: bookmarks.NewRegistry(),
		fetcher:  fetcher,
		renderer: NewRenderer(os.Stdout, os.Stderr),
		config:   cfg,
		stdin:    os.Stdin,
		logger:   logging.GetLogger("pipeline"),
	}
}

// WithThrottle rate limits remote fetches per host
func (p *Pipeline) WithThrottle(t source.Throttle) *Pipeline {
	p.fetcher.WithThrottle(t)
	return p
}

// WithStdin replaces the reader used for the "-" source
func (p *Pipeline) WithStdin(r io.Reader) *Pipeline {
	p.stdin = r
	return p
}

// WithRenderer replaces the output writers
func (p *Pipeline) WithRenderer(r *Renderer) *Pipeline {
	p.renderer = r
	return p
}

// Renderer returns the renderer used for output
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// ConvertOptions adjusts a single conversion
type ConvertOptions struct {
	// Plan is applied to the loaded bookmarks before export
	Plan *session.Plan

	// IDs overrides id generation for bookmarks and rules
	IDs ids.Generator
}

// ConvertResult contains the outcome of one conversion
type ConvertResult struct {
	Source    string
	Document  *model.RuleDocument
	Warnings  []rules.Warning
	Skipped   []string
	Bookmarks int
	Groups    int
}

// Convert reads ref, applies the optional plan and exports the rules. Each
// call owns a fresh session.
func (p *Pipeline) Convert(ctx context.Context, ref string, opts ConvertOptions) (*ConvertResult, error) {
	done := logging.LogOperationStart(p.logger, "convert")
	defer done()

	builder, err := p.Builder(opts.IDs)
	if err != nil {
		return nil, err
	}

	src, err := source.Resolve(ref, source.Options{Fetcher: p.fetcher, Stdin: p.stdin})
	if err != nil {
		return nil, err
	}

	s := session.New(p.registry, builder, session.Options{
		Format:        p.config.Convert.Format,
		DefaultFolder: p.config.Convert.DefaultFolder,
		IDs:           opts.IDs,
	})

	// 1. Load bookmarks
	if err := s.Load(ctx, src); err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}

	// 2. Apply edits
	if opts.Plan != nil {
		if err := s.Apply(opts.Plan); err != nil {
			return nil, err
		}
	}

	// 3. Build rules
	res, err := s.Export()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", src.Name(), err)
	}

	for _, w := range res.Warnings {
		p.logger.Warn().
			Str("group", w.Group).
			Str("url", w.URL).
			Msg(w.Message)
	}

	c := s.Collection()
	return &ConvertResult{
		Source:    s.Source(),
		Document:  res.Document,
		Warnings:  res.Warnings,
		Skipped:   res.Skipped,
		Bookmarks: c.Len(),
		Groups:    len(c.Groups()),
	}, nil
}

// Builder creates a rule builder from the convert config
func (p *Pipeline) Builder(gen ids.Generator) (*rules.Builder, error) {
	return rules.NewBuilder(rules.Options{
		Policy:          rules.Policy(p.config.Convert.Policy),
		IDs:             gen,
		ExcludeFolders:  p.config.Convert.ExcludeFolders,
		StrictHostnames: p.config.Convert.StrictHostnames,
	})
}

// Inspect loads ref without building rules and returns the collection
func (p *Pipeline) Inspect(ctx context.Context, ref string) (*model.Collection, error) {
	src, err := source.Resolve(ref, source.Options{Fetcher: p.fetcher, Stdin: p.stdin})
	if err != nil {
		return nil, err
	}

	s := session.New(p.registry, nil, session.Options{
		Format:        p.config.Convert.Format,
		DefaultFolder: p.config.Convert.DefaultFolder,
	})
	if err := s.Load(ctx, src); err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	return s.Collection(), nil
}

// RenderResult writes the document to path and prints the summary
func (p *Pipeline) RenderResult(result *ConvertResult, path string, verbose bool) error {
	if err := p.renderer.RenderJSON(result.Document, path); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	if verbose && path != StdoutPath {
		p.renderer.Printf("✓ Wrote JSON: %s\n", path)
	}

	p.renderer.RenderSummary(result)
	return nil
}
