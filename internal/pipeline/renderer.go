package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/model"
)

const (
	// StdoutPath writes the document to standard output
	StdoutPath = "-"

	FixedFilename = "tab-groups-rules.json"

	FilenameFixed       = "fixed"
	FilenameTimestamped = "timestamped"
)

// randomDigits supplies the six digit suffix of timestamped names
var randomDigits = func() int { return rand.IntN(1_000_000) }

// Filename returns the output file name for mode
func Filename(mode string, now time.Time) (string, error) {
	switch mode {
	case "", FilenameFixed:
		return FixedFilename, nil
	case FilenameTimestamped:
		return fmt.Sprintf("tabgroups_rules_%s_%06d.json", now.Format("20060102"), randomDigits()), nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown filename mode %q (supported: fixed, timestamped)", mode)
}

// Renderer writes rule documents and human-readable summaries
type Renderer struct {
	out  io.Writer // documents sent to "-"
	info io.Writer // summaries and progress
}

// NewRenderer creates a renderer
func NewRenderer(out, info io.Writer) *Renderer {
	return &Renderer{out: out, info: info}
}

// MarshalDocument encodes doc as 2-space indented JSON with a trailing newline
func MarshalDocument(doc *model.RuleDocument) ([]byte, error) {
	compact, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RenderJSON writes doc to path, creating parent directories
func (r *Renderer) RenderJSON(doc *model.RuleDocument, path string) error {
	data, err := MarshalDocument(doc)
	if err != nil {
		return err
	}

	if path == StdoutPath {
		_, err := r.out.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderSummary prints one line per rule plus warnings
func (r *Renderer) RenderSummary(result *ConvertResult) {
	fmt.Fprintf(r.info, "\n=== %s ===\n", result.Source)
	fmt.Fprintf(r.info, "Bookmarks: %d in %d folders\n", result.Bookmarks, result.Groups)
	fmt.Fprintf(r.info, "Rules:     %d\n", result.Document.Len())

	for _, rule := range result.Document.Rules() {
		fmt.Fprintf(r.info, "  %-30s %d url, %d title\n", rule.GroupName, len(rule.URLMatches), len(rule.TitleMatches))
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(r.info, "Skipped:   %d empty or excluded folders\n", len(result.Skipped))
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(r.info, "\n⚠ %d warnings:\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Fprintf(r.info, "  [%s] %s: %s\n", w.Group, w.URL, w.Message)
		}
	}
	fmt.Fprintln(r.info)
}

// Printf writes a progress line to the info stream
func (r *Renderer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(r.info, format, args...)
}
