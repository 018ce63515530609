// Package source reads raw bookmark exports from files, stdin or HTTP.
package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/tabrules/internal/errors"
)

// StdinRef is the reference that selects standard input
const StdinRef = "-"

// Source is one bookmark export to read
type Source interface {
	// Name identifies the source; adapters sniff its extension
	Name() string

	// Read returns the raw content. Failures are SOURCE_UNAVAILABLE errors.
	Read(ctx context.Context) ([]byte, error)
}

// Options carries the collaborators Resolve may need
type Options struct {
	Fetcher *Fetcher  // required for http(s) references
	Stdin   io.Reader // defaults to os.Stdin
}

// Resolve maps a reference to a Source: "-" is stdin, http:// and https://
// are fetched, anything else is a file path
func Resolve(ref string, opts Options) (Source, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, errors.New(errors.ErrInvalidInput, "empty source reference")
	case ref == StdinRef:
		r := opts.Stdin
		if r == nil {
			r = os.Stdin
		}
		return &Stdin{r: r}, nil
	case IsRemote(ref):
		if opts.Fetcher == nil {
			return nil, errors.Newf(errors.ErrInvalidInput, "no fetcher configured for %s", ref)
		}
		return &HTTP{URL: ref, fetcher: opts.Fetcher}, nil
	default:
		return &File{Path: ref}, nil
	}
}

// IsRemote reports whether ref is an http or https URL
func IsRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// File reads a local file
type File struct {
	Path string
}

func (f *File) Name() string { return f.Path }

func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceUnavailable, "read %s", f.Path)
	}
	data, err := os.ReadFile(filepath.Clean(f.Path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceUnavailable, "read %s", f.Path)
	}
	return data, nil
}

// Stdin reads everything from a reader once
type Stdin struct {
	r io.Reader
}

func (s *Stdin) Name() string { return "stdin" }

func (s *Stdin) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrSourceUnavailable, "read stdin")
	}
	data, err := io.ReadAll(s.r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSourceUnavailable, "read stdin")
	}
	return data, nil
}

// HTTP fetches a remote export
type HTTP struct {
	URL     string
	fetcher *Fetcher
}

func (h *HTTP) Name() string { return h.URL }

func (h *HTTP) Read(ctx context.Context) ([]byte, error) {
	res, err := h.fetcher.FetchWithRetry(ctx, h.URL)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceUnavailable, "fetch %s", h.URL)
	}
	return res.Body, nil
}
