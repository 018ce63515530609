package model

import (
	"fmt"
	"strings"

	"github.com/ppiankov/tabrules/internal/errors"
)

// Collection holds the bookmarks of one load and their groups.
// Every bookmark's GroupName names exactly one group, and that group lists the
// bookmark's id. All mutations go through methods that keep both sides in sync.
type Collection struct {
	bookmarks map[string]*Bookmark
	groups    map[string][]string
	order     []string
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{
		bookmarks: make(map[string]*Bookmark),
		groups:    make(map[string][]string),
	}
}

// Add inserts b and appends its id to the group named by b.GroupName
func (c *Collection) Add(b *Bookmark) error {
	if b.ID == "" {
		return errors.New(errors.ErrInvalidInput, "bookmark id is empty")
	}
	if _, exists := c.bookmarks[b.ID]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "bookmark %q already exists", b.ID)
	}

	c.EnsureGroup(b.GroupName)
	c.bookmarks[b.ID] = b
	c.groups[b.GroupName] = append(c.groups[b.GroupName], b.ID)
	return nil
}

// Has reports whether a bookmark with the given id exists
func (c *Collection) Has(id string) bool {
	_, ok := c.bookmarks[id]
	return ok
}

// Bookmark returns the bookmark with the given id
func (c *Collection) Bookmark(id string) (*Bookmark, bool) {
	b, ok := c.bookmarks[id]
	return b, ok
}

// FindByURL returns all bookmarks with the given URL in group order
func (c *Collection) FindByURL(rawURL string) []*Bookmark {
	var found []*Bookmark
	for _, b := range c.Bookmarks() {
		if b.URL == rawURL {
			found = append(found, b)
		}
	}
	return found
}

// Bookmarks returns every bookmark, group by group in group order
func (c *Collection) Bookmarks() []*Bookmark {
	out := make([]*Bookmark, 0, len(c.bookmarks))
	for _, name := range c.order {
		out = append(out, c.GroupBookmarks(name)...)
	}
	return out
}

// Len returns the number of bookmarks
func (c *Collection) Len() int {
	return len(c.bookmarks)
}

// EnsureGroup creates an empty group if none with that name exists
func (c *Collection) EnsureGroup(name string) {
	if _, ok := c.groups[name]; ok {
		return
	}
	c.groups[name] = []string{}
	c.order = append(c.order, name)
}

// HasGroup reports whether a group exists
func (c *Collection) HasGroup(name string) bool {
	_, ok := c.groups[name]
	return ok
}

// Groups returns group names in insertion order
func (c *Collection) Groups() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// GroupIDs returns the bookmark ids of a group in order
func (c *Collection) GroupIDs(name string) []string {
	ids := c.groups[name]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// GroupBookmarks returns the bookmarks of a group in order
func (c *Collection) GroupBookmarks(name string) []*Bookmark {
	ids := c.groups[name]
	out := make([]*Bookmark, 0, len(ids))
	for _, id := range ids {
		if b, ok := c.bookmarks[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// RenameGroup renames a group in place, keeping its position and updating
// the GroupName of every member
func (c *Collection) RenameGroup(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.New(errors.ErrInvalidInput, "group name is empty")
	}
	ids, ok := c.groups[oldName]
	if !ok {
		return errors.Newf(errors.ErrNotFound, "group %q not found", oldName)
	}
	if newName == oldName {
		return nil
	}
	if _, taken := c.groups[newName]; taken {
		return errors.Newf(errors.ErrAlreadyExists, "group %q already exists", newName)
	}

	delete(c.groups, oldName)
	c.groups[newName] = ids
	for i, name := range c.order {
		if name == oldName {
			c.order[i] = newName
			break
		}
	}
	for _, id := range ids {
		if b, ok := c.bookmarks[id]; ok {
			b.GroupName = newName
		}
	}
	return nil
}

// MoveBookmark moves a bookmark to the end of another group, creating the
// group if needed
func (c *Collection) MoveBookmark(id, group string) error {
	b, ok := c.bookmarks[id]
	if !ok {
		return errors.Newf(errors.ErrNotFound, "bookmark %q not found", id)
	}
	if strings.TrimSpace(group) == "" {
		return errors.New(errors.ErrInvalidInput, "group name is empty")
	}
	if b.GroupName == group {
		return nil
	}

	c.groups[b.GroupName] = removeID(c.groups[b.GroupName], id)
	c.EnsureGroup(group)
	c.groups[group] = append(c.groups[group], id)
	b.GroupName = group
	return nil
}

// DeleteGroup removes a group together with its bookmarks
func (c *Collection) DeleteGroup(name string) error {
	ids, ok := c.groups[name]
	if !ok {
		return errors.Newf(errors.ErrNotFound, "group %q not found", name)
	}

	for _, id := range ids {
		delete(c.bookmarks, id)
	}
	delete(c.groups, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// UniqueGroupName returns base, or "base N" with the smallest N that is free
func (c *Collection) UniqueGroupName(base string) string {
	name := base
	for n := 1; c.HasGroup(name); n++ {
		name = fmt.Sprintf("%s %d", base, n)
	}
	return name
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
