package bookmarks

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"
	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/model"
)

// XBELAdapter reads XML Bookmark Exchange Language files
type XBELAdapter struct{}

// NewXBELAdapter creates a new XBEL adapter
func NewXBELAdapter() *XBELAdapter {
	return &XBELAdapter{}
}

// Name returns the adapter name
func (a *XBELAdapter) Name() string {
	return "xbel"
}

// CanHandle accepts .xbel files and content with an xbel root
func (a *XBELAdapter) CanHandle(filename string, content []byte) bool {
	return hasExt(filename, ".xbel") || bytes.Contains(content, []byte("<xbel"))
}

// Parse walks folder and bookmark elements in document order
func (a *XBELAdapter) Parse(content []byte, opts ParseOptions) (*model.Collection, error) {
	opts = opts.withDefaults()

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidFormat, "parse XBEL")
	}
	root := doc.Root()
	if root == nil || root.Tag != "xbel" {
		return nil, errors.New(errors.ErrInvalidFormat, "XBEL document has no xbel root element")
	}

	k := newCollector(opts)
	if err := a.walk(k, root, opts.DefaultFolder); err != nil {
		return nil, err
	}
	return k.c, nil
}

func (a *XBELAdapter) walk(k *collector, el *etree.Element, folder string) error {
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "folder":
			name := titleOf(child)
			if name == "" {
				name = folder
			}
			k.c.EnsureGroup(name)
			if err := a.walk(k, child, name); err != nil {
				return err
			}

		case "bookmark":
			href := strings.TrimSpace(child.SelectAttrValue("href", ""))
			if href == "" {
				continue
			}
			if err := k.add(child.SelectAttrValue("id", ""), href, titleOf(child), folder); err != nil {
				return err
			}
		}
	}
	return nil
}

func titleOf(el *etree.Element) string {
	title := el.SelectElement("title")
	if title == nil {
		return ""
	}
	return strings.TrimSpace(title.Text())
}
