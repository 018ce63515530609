package worker

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/tabrules/internal/logging"
	"github.com/ppiankov/tabrules/internal/pipeline"
	"github.com/ppiankov/tabrules/internal/source"
)

// Converter converts one bookmark source
type Converter interface {
	Convert(ctx context.Context, ref string, opts pipeline.ConvertOptions) (*pipeline.ConvertResult, error)
}

// ConvertJob converts one source and optionally writes its document
type ConvertJob struct {
	Index      int
	Ref        string
	OutputPath string
	Converter  Converter
}

// Execute executes the conversion
func (j *ConvertJob) Execute(ctx context.Context) Result {
	res := &ConvertResult{Index: j.Index, Ref: j.Ref}

	out, err := j.Converter.Convert(ctx, j.Ref, pipeline.ConvertOptions{})
	if err != nil {
		res.Error = err
		return res
	}
	res.Result = out

	if j.OutputPath != "" {
		r := pipeline.NewRenderer(nil, nil)
		if err := r.RenderJSON(out.Document, j.OutputPath); err != nil {
			res.Error = fmt.Errorf("write %s: %w", j.OutputPath, err)
			return res
		}
		res.OutputPath = j.OutputPath
	}
	return res
}

// ConvertResult represents the result of a conversion job
type ConvertResult struct {
	Index      int
	Ref        string
	OutputPath string
	Result     *pipeline.ConvertResult
	Error      error
}

// GetError returns the error from the conversion
func (r *ConvertResult) GetError() error {
	return r.Error
}

// BatchProcessor converts many sources concurrently
type BatchProcessor struct {
	converter   Converter
	concurrency int
	outputDir   string
}

// NewBatchProcessor creates a batch processor. With an empty outputDir the
// documents are only returned.
func NewBatchProcessor(converter Converter, concurrency int, outputDir string) *BatchProcessor {
	return &BatchProcessor{
		converter:   converter,
		concurrency: concurrency,
		outputDir:   outputDir,
	}
}

// Process converts refs and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, refs []string) []*ConvertResult {
	if len(refs) == 0 {
		return []*ConvertResult{}
	}

	logger := logging.GetLogger("batch")
	logger.Info().Int("sources", len(refs)).Int("workers", b.concurrency).Msg("Batch started")

	paths := OutputPaths(b.outputDir, refs)

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	results := pool.Collect(func(p *Pool) {
		for i, ref := range refs {
			job := &ConvertJob{
				Index:     i,
				Ref:       ref,
				Converter: b.converter,
			}
			if b.outputDir != "" {
				job.OutputPath = paths[i]
			}
			if !p.Submit(job) {
				return
			}
		}
	})

	converted := make([]*ConvertResult, 0, len(refs))
	for _, r := range results {
		converted = append(converted, r.(*ConvertResult))
	}
	sort.Slice(converted, func(i, j int) bool { return converted[i].Index < converted[j].Index })

	// Sources never submitted because the context ended
	if len(converted) < len(refs) {
		done := make(map[int]bool, len(converted))
		for _, r := range converted {
			done[r.Index] = true
		}
		for i, ref := range refs {
			if !done[i] {
				converted = append(converted, &ConvertResult{Index: i, Ref: ref, Error: fmt.Errorf("not converted: %w", context.Cause(ctx))})
			}
		}
		sort.Slice(converted, func(i, j int) bool { return converted[i].Index < converted[j].Index })
	}

	failed := 0
	for _, r := range converted {
		if r.Error != nil {
			failed++
			logger.Warn().Err(r.Error).Str("source", r.Ref).Msg("Conversion failed")
		}
	}
	logger.Info().Int("converted", len(converted)-failed).Int("failed", failed).Msg("Batch finished")

	return converted
}

// ProcessFile reads sources from a file and converts them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ConvertResult, error) {
	refs, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.Process(ctx, refs), nil
}

// ReadSourcesFromFile reads source references from a file (one per line)
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var refs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			refs = append(refs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return refs, nil
}

// OutputPaths assigns each ref a distinct <slug>.json path under dir. A
// repeated slug gets the first free -2, -3, ... suffix; a suffixed name that
// another ref already produced is skipped.
func OutputPaths(dir string, refs []string) []string {
	slugs := make([]string, len(refs))
	taken := make(map[string]bool, len(refs))
	for i, ref := range refs {
		slugs[i] = Slug(ref)
	}

	paths := make([]string, len(refs))
	for i, slug := range slugs {
		name := slug
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", slug, n)
		}
		taken[name] = true
		paths[i] = filepath.Join(dir, name+".json")
	}
	return paths
}

// Slug derives a file name stem from a source reference
func Slug(ref string) string {
	var raw string
	switch {
	case ref == source.StdinRef:
		raw = "stdin"
	case source.IsRemote(ref):
		if u, err := url.Parse(ref); err == nil {
			raw = u.Host + strings.TrimSuffix(u.Path, filepath.Ext(u.Path))
		} else {
			raw = ref
		}
	default:
		base := filepath.Base(ref)
		raw = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "bookmarks"
	}
	return slug
}
