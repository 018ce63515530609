// Package session holds the bookmarks of one load while they are edited and
// exported. A session runs one operation at a time; overlapping calls fail
// with a BUSY error instead of interleaving.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/ppiankov/tabrules/internal/bookmarks"
	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/ids"
	"github.com/ppiankov/tabrules/internal/logging"
	"github.com/ppiankov/tabrules/internal/model"
	"github.com/ppiankov/tabrules/internal/rules"
	"github.com/ppiankov/tabrules/internal/source"
	"github.com/ppiankov/tabrules/internal/util"
	"github.com/rs/zerolog"
)

// DefaultGroupBase names groups created without an explicit name
const DefaultGroupBase = "New Folder"

// Options configures loading
type Options struct {
	// Format forces an adapter by name; empty detects from name and content
	Format string

	// DefaultFolder receives bookmarks without an enclosing folder
	DefaultFolder string

	// IDs generates bookmark ids; nil uses a random generator per load
	IDs ids.Generator
}

// Session is the state of one editor: the loaded collection plus the
// registry and builder used to load and export it
type Session struct {
	registry *bookmarks.Registry
	builder  *rules.Builder
	opts     Options
	logger   zerolog.Logger

	busy sync.Mutex
	c    *model.Collection
	src  string
}

// New creates an empty session
func New(registry *bookmarks.Registry, builder *rules.Builder, opts Options) *Session {
	if registry == nil {
		registry = bookmarks.NewRegistry()
	}
	return &Session{
		registry: registry,
		builder:  builder,
		opts:     opts,
		logger:   logging.GetLogger("session"),
	}
}

// acquire takes the busy lock without waiting
func (s *Session) acquire(op string) (func(), error) {
	if !s.busy.TryLock() {
		return nil, errors.Newf(errors.ErrBusy, "cannot %s: another operation is in progress", op)
	}
	return s.busy.Unlock, nil
}

// Load reads src and replaces the session's bookmarks with its contents
func (s *Session) Load(ctx context.Context, src source.Source) error {
	release, err := s.acquire("load")
	if err != nil {
		return err
	}
	defer release()

	done := logging.LogOperationStart(s.logger, "load")
	defer done()

	content, err := src.Read(ctx)
	if err != nil {
		return err
	}
	return s.parse(src.Name(), content)
}

func (s *Session) parse(name string, content []byte) error {
	var (
		adapter bookmarks.Adapter
		err     error
	)
	if s.opts.Format != "" {
		adapter, err = s.registry.Get(s.opts.Format)
	} else {
		adapter, err = s.registry.FindAdapter(name, content)
	}
	if err != nil {
		return err
	}

	c, err := adapter.Parse(content, bookmarks.ParseOptions{
		DefaultFolder: s.opts.DefaultFolder,
		IDs:           s.opts.IDs,
	})
	if err != nil {
		return err
	}

	s.c = c
	s.src = name
	s.logger.Info().
		Str("source", name).
		Str("format", adapter.Name()).
		Int("bookmarks", c.Len()).
		Int("groups", len(c.Groups())).
		Msg("Bookmarks loaded")
	return nil
}

// Export builds the rule document from the current bookmarks
func (s *Session) Export() (*rules.Result, error) {
	release, err := s.acquire("export")
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.loaded(); err != nil {
		return nil, err
	}
	if s.builder == nil {
		return nil, errors.New(errors.ErrInternal, "session has no rule builder")
	}

	res, err := s.builder.Build(s.c)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("source", s.src).
		Str("policy", string(s.builder.Policy())).
		Int("rules", res.Document.Len()).
		Int("warnings", len(res.Warnings)).
		Msg("Rules exported")
	return res, nil
}

// Collection returns the loaded bookmarks, or nil before the first load.
// Callers must not mutate it while another goroutine uses the session.
func (s *Session) Collection() *model.Collection {
	return s.c
}

// Source returns the name of the last loaded source
func (s *Session) Source() string {
	return s.src
}

func (s *Session) loaded() error {
	if s.c == nil {
		return errors.New(errors.ErrInvalidInput, "no bookmarks loaded")
	}
	return nil
}

// edit runs fn on the collection under the busy lock
func (s *Session) edit(op string, fn func(c *model.Collection) error) error {
	release, err := s.acquire(op)
	if err != nil {
		return err
	}
	defer release()

	if err := s.loaded(); err != nil {
		return err
	}
	return fn(s.c)
}

func bookmarkOf(c *model.Collection, id string) (*model.Bookmark, error) {
	b, ok := c.Bookmark(id)
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "bookmark %q not found", id)
	}
	return b, nil
}

// RenameGroup renames a group and every member's GroupName
func (s *Session) RenameGroup(oldName, newName string) error {
	return s.edit("rename group", func(c *model.Collection) error {
		return c.RenameGroup(oldName, newName)
	})
}

// MoveBookmark reassigns a bookmark to another group
func (s *Session) MoveBookmark(id, group string) error {
	return s.edit("move bookmark", func(c *model.Collection) error {
		return c.MoveBookmark(id, group)
	})
}

// SetSelected toggles whether a bookmark is exported by the eager policy
func (s *Session) SetSelected(id string, selected bool) error {
	return s.edit("select bookmark", func(c *model.Collection) error {
		b, err := bookmarkOf(c, id)
		if err != nil {
			return err
		}
		b.Selected = selected
		return nil
	})
}

// SelectGroup sets the selection of every bookmark in a group
func (s *Session) SelectGroup(group string, selected bool) error {
	return s.edit("select group", func(c *model.Collection) error {
		if !c.HasGroup(group) {
			return errors.Newf(errors.ErrNotFound, "group %q not found", group)
		}
		for _, b := range c.GroupBookmarks(group) {
			b.Selected = selected
		}
		return nil
	})
}

// SetMatch overwrites a bookmark's match fields. Zero values keep the current field.
func (s *Session) SetMatch(id string, method model.Method, target model.Target, value string) error {
	return s.edit("set match", func(c *model.Collection) error {
		b, err := bookmarkOf(c, id)
		if err != nil {
			return err
		}
		if method != "" && !method.Valid() {
			return errors.Newf(errors.ErrInvalidInput, "unknown method %q", method)
		}
		if target != "" && !target.Valid() {
			return errors.Newf(errors.ErrInvalidInput, "unknown target %q", target)
		}

		if method != "" {
			b.Method = method
		}
		if target != "" {
			b.Target = target
		}
		if value != "" {
			b.Value = value
		}
		return nil
	})
}

// Retarget switches a bookmark's target and re-derives method and value
// from the bookmark itself: hostname uses includes on the host, href uses
// equal on the full URL, the title targets use includes on the title
func (s *Session) Retarget(id string, target model.Target) error {
	return s.edit("retarget", func(c *model.Collection) error {
		b, err := bookmarkOf(c, id)
		if err != nil {
			return err
		}

		switch target {
		case model.TargetHostname:
			b.Method, b.Value = model.MethodIncludes, util.Hostname(b.URL)
		case model.TargetHref:
			b.Method, b.Value = model.MethodEqual, b.URL
		case model.TargetPageTitle, model.TargetPageTitleIgnoreCase:
			b.Method, b.Value = model.MethodIncludes, b.Title
		default:
			return errors.Newf(errors.ErrInvalidInput, "unknown target %q", target)
		}
		b.Target = target
		return nil
	})
}

// CreateGroup adds an empty group named base, or "base N" if taken, and
// returns the name used
func (s *Session) CreateGroup(base string) (string, error) {
	var name string
	err := s.edit("create group", func(c *model.Collection) error {
		base = strings.TrimSpace(base)
		if base == "" {
			base = DefaultGroupBase
		}
		name = c.UniqueGroupName(base)
		c.EnsureGroup(name)
		return nil
	})
	return name, err
}

// DeleteGroup removes a group and its bookmarks
func (s *Session) DeleteGroup(name string) error {
	return s.edit("delete group", func(c *model.Collection) error {
		return c.DeleteGroup(name)
	})
}
