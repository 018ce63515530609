package bookmarks

import (
	"bytes"
	"strings"

	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/model"
	"golang.org/x/net/html"
)

// NetscapeMarker opens every browser bookmarks export
const NetscapeMarker = "<!DOCTYPE NETSCAPE-Bookmark-file-1>"

// NetscapeAdapter reads bookmarks HTML exports. H3 headings open a folder,
// anchors are bookmarks of the innermost open folder and a DL closes it.
type NetscapeAdapter struct {
	BaseAdapter
}

// NewNetscapeAdapter creates a new bookmarks HTML adapter
func NewNetscapeAdapter() *NetscapeAdapter {
	return &NetscapeAdapter{}
}

// Name returns the adapter name
func (a *NetscapeAdapter) Name() string {
	return "netscape"
}

// CanHandle accepts .html files and content carrying the export marker
func (a *NetscapeAdapter) CanHandle(filename string, content []byte) bool {
	return hasExt(filename, ".html", ".htm") || bytes.Contains(content, []byte(NetscapeMarker))
}

// Parse validates the marker, parses the document and collects bookmarks.
// The folder stack is seeded with the default folder and never popped below it.
func (a *NetscapeAdapter) Parse(content []byte, opts ParseOptions) (*model.Collection, error) {
	if !bytes.Contains(content, []byte(NetscapeMarker)) {
		return nil, errors.New(errors.ErrInvalidFormat, "invalid bookmarks file format: missing "+NetscapeMarker)
	}
	opts = opts.withDefaults()

	doc, err := a.ParseHTML(content)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidFormat, "parse bookmarks HTML")
	}

	root := a.FindFirst(doc, func(n *html.Node) bool { return a.IsElement(n, "body") })
	if root == nil {
		root = doc
	}

	k := newCollector(opts)
	stack := []string{opts.DefaultFolder}

	var walk func(*html.Node) error
	walk = func(n *html.Node) error {
		if a.IsElement(n, "h3") {
			name := a.TextContent(n)
			if name == "" {
				name = stack[len(stack)-1]
			}
			stack = append(stack, name)
			k.c.EnsureGroup(name)
		}

		if a.IsElement(n, "a") {
			if href := strings.TrimSpace(a.GetAttribute(n, "href")); href != "" {
				if err := k.add("", href, a.TextContent(n), stack[len(stack)-1]); err != nil {
					return err
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}

		if a.IsElement(n, "dl") && len(stack) > 1 {
			stack = stack[:len(stack)-1]
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return k.c, nil
}
