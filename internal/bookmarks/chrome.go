package bookmarks

import (
	"bytes"
	"encoding/json"

	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/model"
)

// Node is one entry of a bookmark tree. A non-empty URL marks a bookmark;
// a present children list marks a folder.
type Node struct {
	ID       NodeID `json:"id"`
	Title    string `json:"title"`
	Name     string `json:"name"` // Chrome profile files use name instead of title
	URL      string `json:"url"`
	Children []Node `json:"children"`
}

// Label returns the display name of the node
func (n Node) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Name
}

// IsFolder reports whether the node carries a children list
func (n Node) IsFolder() bool {
	return n.Children != nil
}

// NodeID accepts ids encoded as JSON strings or numbers
type NodeID string

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = NodeID(n.String())
	return nil
}

// profileFile is the on-disk Chrome "Bookmarks" file
type profileFile struct {
	Roots map[string]Node `json:"roots"`
}

// profileRoots is the order in which Chrome shows its root folders
var profileRoots = []string{"bookmark_bar", "other", "synced"}

// ChromeAdapter reads bookmark trees exported from Chrome, either the
// chrome.bookmarks.getTree() JSON dump or a profile Bookmarks file
type ChromeAdapter struct{}

// NewChromeAdapter creates a new Chrome adapter
func NewChromeAdapter() *ChromeAdapter {
	return &ChromeAdapter{}
}

// Name returns the adapter name
func (a *ChromeAdapter) Name() string {
	return "chrome"
}

// CanHandle accepts .json files and JSON-looking content
func (a *ChromeAdapter) CanHandle(filename string, content []byte) bool {
	if hasExt(filename, ".json") {
		return true
	}
	b := firstByte(content)
	return b == '[' || b == '{'
}

// Parse decodes the tree and groups bookmarks by nearest enclosing folder
func (a *ChromeAdapter) Parse(content []byte, opts ParseOptions) (*model.Collection, error) {
	opts = opts.withDefaults()

	top, err := a.decode(content)
	if err != nil {
		return nil, err
	}
	return a.Walk(top, opts)
}

// Walk traverses nodes that are already decoded, as returned by a tree provider
func (a *ChromeAdapter) Walk(nodes []Node, opts ParseOptions) (*model.Collection, error) {
	opts = opts.withDefaults()

	k := newCollector(opts)
	if err := a.traverse(k, nodes, opts.DefaultFolder); err != nil {
		return nil, err
	}
	return k.c, nil
}

// decode returns the top-level nodes to traverse
func (a *ChromeAdapter) decode(content []byte) ([]Node, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	switch firstByte(content) {
	case '[':
		var tree []Node
		if err := json.Unmarshal(content, &tree); err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidFormat, "decode bookmark tree")
		}
		// getTree() returns a single untitled root whose children are the real roots
		if len(tree) == 1 && tree[0].URL == "" && tree[0].Label() == "" && tree[0].IsFolder() {
			return tree[0].Children, nil
		}
		return tree, nil

	case '{':
		var file profileFile
		if err := json.Unmarshal(content, &file); err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidFormat, "decode bookmarks file")
		}
		if file.Roots == nil {
			return nil, errors.New(errors.ErrInvalidFormat, "bookmarks file has no roots")
		}
		var top []Node
		for _, key := range profileRoots {
			if root, ok := file.Roots[key]; ok {
				top = append(top, root)
			}
		}
		return top, nil
	}

	return nil, errors.New(errors.ErrInvalidFormat, "bookmark tree must be a JSON array or object")
}

// traverse walks nodes depth-first in pre-order carrying the current folder
func (a *ChromeAdapter) traverse(k *collector, nodes []Node, folder string) error {
	for _, node := range nodes {
		if node.URL != "" {
			if err := k.add(string(node.ID), node.URL, node.Label(), folder); err != nil {
				return err
			}
		}

		if node.IsFolder() {
			child := node.Label()
			if child == "" {
				child = folder
			}
			k.c.EnsureGroup(child)
			if err := a.traverse(k, node.Children, child); err != nil {
				return err
			}
		}
	}
	return nil
}
