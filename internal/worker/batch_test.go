package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/tabrules/internal/model"
	"github.com/ppiankov/tabrules/internal/pipeline"
)

// mockConverter implements Converter
type mockConverter struct {
	fail map[string]bool
}

func (m *mockConverter) Convert(ctx context.Context, ref string, opts pipeline.ConvertOptions) (*pipeline.ConvertResult, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	if m.fail[ref] {
		return nil, errors.New("convert error")
	}

	doc := model.NewRuleDocument()
	r := model.NewRule("rule-1", "Work")
	r.URLMatches = append(r.URLMatches, model.URLMatch{Method: model.MethodIncludes, Target: model.TargetHostname, Value: "a.com"})
	doc.Add(r)
	return &pipeline.ConvertResult{Source: ref, Document: doc}, nil
}

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_Process(t *testing.T) {
	refs := []string{"a.html", "https://example.com/b.json", "c.xbel", "d.html", "e.html", "f.html"}
	processor := NewBatchProcessor(&mockConverter{}, 2, "")

	results := processor.Process(context.Background(), refs)

	if len(results) != len(refs) {
		t.Fatalf("expected %d results, got %d", len(refs), len(results))
	}
	for i, res := range results {
		if res.Ref != refs[i] {
			t.Errorf("result %d: expected %s, got %s (results must keep input order)", i, refs[i], res.Ref)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Ref, res.Error)
		}
		if res.Result == nil || res.Result.Document.Len() != 1 {
			t.Errorf("expected a document for %s", res.Ref)
		}
		if res.OutputPath != "" {
			t.Errorf("expected no output without an output dir, got %s", res.OutputPath)
		}
	}
}

func TestBatchProcessor_Process_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockConverter{fail: map[string]bool{"bad.html": true}}, 2, "")

	results := processor.Process(context.Background(), []string{"good.html", "bad.html"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("unexpected error: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[1].Result != nil {
		t.Error("expected nil result on error")
	}
}

func TestBatchProcessor_Process_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockConverter{}, 2, "").Process(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_WritesDocuments(t *testing.T) {
	dir := t.TempDir()
	processor := NewBatchProcessor(&mockConverter{}, 2, dir)

	results := processor.Process(context.Background(), []string{"exports/work.html", "other/work.html"})

	want := []string{filepath.Join(dir, "work.json"), filepath.Join(dir, "work-2.json")}
	for i, res := range results {
		if res.Error != nil {
			t.Fatalf("unexpected error: %v", res.Error)
		}
		if res.OutputPath != want[i] {
			t.Errorf("expected %s, got %s", want[i], res.OutputPath)
		}

		data, err := os.ReadFile(res.OutputPath)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		var doc model.RuleDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if !doc.HasMeta || doc.Len() != 1 {
			t.Errorf("unexpected document in %s", res.OutputPath)
		}
	}
}

func TestBatchProcessor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refs := []string{"a.html", "b.html", "c.html"}
	results := NewBatchProcessor(&mockConverter{}, 1, "").Process(ctx, refs)

	if len(results) != len(refs) {
		t.Fatalf("expected a result for every source, got %d", len(results))
	}
	for i, res := range results {
		if res.Ref != refs[i] {
			t.Errorf("result %d: expected %s, got %s", i, refs[i], res.Ref)
		}
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeList(t, "a.html\nhttps://example.com/b.json\n# comment\n\nc.xbel\n")

	results, err := NewBatchProcessor(&mockConverter{}, 2, "").ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	_, err := NewBatchProcessor(&mockConverter{}, 2, "").ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadSourcesFromFile(t *testing.T) {
	path := writeList(t, `bookmarks.html
# comment
https://example.com/export.json
   
bookmarks.html
  -  `)

	refs, err := ReadSourcesFromFile(path)
	if err != nil {
		t.Fatalf("ReadSourcesFromFile failed: %v", err)
	}

	expected := []string{"bookmarks.html", "https://example.com/export.json", "-"}
	if len(refs) != len(expected) {
		t.Fatalf("expected %d sources, got %d: %v", len(expected), len(refs), refs)
	}
	for i, ref := range refs {
		if ref != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, ref)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"bookmarks.html", "bookmarks"},
		{"/home/me/Exports/Chrome Bookmarks.json", "chrome-bookmarks"},
		{"https://example.com/team/bookmarks.html", "example-com-team-bookmarks"},
		{"-", "stdin"},
		{"___.html", "bookmarks"},
	}

	for _, tt := range tests {
		if got := Slug(tt.ref); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name string
		refs []string
		want []string
	}{
		{"distinct", []string{"a.html", "b.json"}, []string{"a.json", "b.json"}},
		{"repeated slug", []string{"a.html", "a.json", "x/a.xbel"}, []string{"a.json", "a-2.json", "a-3.json"}},
		{"suffix already used", []string{"a-2.html", "a.html", "a.json"}, []string{"a-2.json", "a.json", "a-3.json"}},
		{"suffix used later", []string{"a.html", "a.json", "a-2.html"}, []string{"a.json", "a-2.json", "a-2-2.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputPaths("out", tt.refs)
			seen := make(map[string]bool)
			for i, path := range got {
				want := filepath.Join("out", tt.want[i])
				if path != want {
					t.Errorf("path %d = %q, want %q", i, path, want)
				}
				if seen[path] {
					t.Errorf("path %q assigned twice", path)
				}
				seen[path] = true
			}
		})
	}
}

func TestConvertResult_GetError(t *testing.T) {
	r1 := &ConvertResult{Ref: "a.html"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("convert failed")
	r2 := &ConvertResult{Ref: "a.html", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
