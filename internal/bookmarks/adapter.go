package bookmarks

import (
	"bytes"
	"strings"

	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/ids"
	"github.com/ppiankov/tabrules/internal/model"
	"github.com/ppiankov/tabrules/internal/util"
	"golang.org/x/net/html"
)

// Adapter turns one bookmark source format into a Collection
type Adapter interface {
	// Name returns the format name used by --format
	Name() string

	// CanHandle checks if this adapter recognizes the file name or content
	CanHandle(filename string, content []byte) bool

	// Parse traverses the source and groups bookmarks by folder
	Parse(content []byte, opts ParseOptions) (*model.Collection, error)
}

// ParseOptions are shared by all adapters
type ParseOptions struct {
	// DefaultFolder receives bookmarks that have no enclosing folder
	DefaultFolder string

	// IDs generates ids for bookmarks whose source has none
	IDs ids.Generator
}

func (o ParseOptions) withDefaults() ParseOptions {
	if o.DefaultFolder == "" {
		o.DefaultFolder = model.DefaultFolder
	}
	if o.IDs == nil {
		o.IDs = ids.NewRandom()
	}
	return o
}

// Registry manages source adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{}

	registry.Register(NewNetscapeAdapter())
	registry.Register(NewXBELAdapter())
	registry.Register(NewChromeAdapter())

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// Get returns the adapter registered under name
func (r *Registry) Get(name string) (Adapter, error) {
	for _, adapter := range r.adapters {
		if adapter.Name() == strings.ToLower(name) {
			return adapter, nil
		}
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "unknown bookmarks format %q (supported: %s)", name, strings.Join(r.Names(), ", "))
}

// Names lists registered format names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		names = append(names, adapter.Name())
	}
	return names
}

// FindAdapter returns the first adapter that recognizes the source
func (r *Registry) FindAdapter(filename string, content []byte) (Adapter, error) {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(filename, content) {
			return adapter, nil
		}
	}
	return nil, errors.New(errors.ErrInvalidFormat, "unrecognized bookmarks format").
		WithDetail("source", filename)
}

// collector appends bookmarks to a collection with default match fields
type collector struct {
	c   *model.Collection
	ids ids.Generator
}

func newCollector(opts ParseOptions) *collector {
	k := &collector{c: model.NewCollection(), ids: opts.IDs}
	k.c.EnsureGroup(opts.DefaultFolder)
	return k
}

func (k *collector) add(id, rawURL, title, folder string) error {
	if id == "" || k.c.Has(id) {
		id = k.ids.Next(ids.BookmarkPrefix)
		for k.c.Has(id) {
			id = k.ids.Next(ids.BookmarkPrefix)
		}
	}

	return k.c.Add(&model.Bookmark{
		ID:        id,
		URL:       rawURL,
		Title:     title,
		GroupName: folder,
		Selected:  true,
		Method:    model.MethodIncludes,
		Target:    model.TargetHostname,
		Value:     util.Hostname(rawURL),
	})
}

// hasExt reports whether filename ends with one of exts, case-insensitively
func hasExt(filename string, exts ...string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// firstByte returns the first non-space byte of content (after a UTF-8 BOM)
func firstByte(content []byte) byte {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// BaseAdapter provides HTML helpers for adapters working on parsed documents
type BaseAdapter struct{}

// ParseHTML parses HTML bytes into a node tree
func (b *BaseAdapter) ParseHTML(content []byte) (*html.Node, error) {
	return html.Parse(bytes.NewReader(content))
}

// TextContent concatenates all descendant text and trims the result
func (b *BaseAdapter) TextContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// IsElement checks if n is an element with the given lowercase tag
func (b *BaseAdapter) IsElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// FindFirst finds the first node matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}
