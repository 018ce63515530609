package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/model"
	"gopkg.in/yaml.v3"
)

// Plan is an ordered list of edits applied to a loaded session before export.
// Group names match exactly, case included; unfiled bookmarks live in
// model.DefaultFolder ("Bookmarks Bar").
//
//	steps:
//	  - op: rename
//	    group: Work
//	    to: Daily
//	  - op: retarget
//	    url: https://jira.example.com/
//	    target: href
type Plan struct {
	Steps []Step `yaml:"steps" toml:"steps"`
}

// Step is one edit. Which fields apply depends on Op.
type Step struct {
	Op     string `yaml:"op" toml:"op"`
	Group  string `yaml:"group,omitempty" toml:"group,omitempty"`
	To     string `yaml:"to,omitempty" toml:"to,omitempty"`
	URL    string `yaml:"url,omitempty" toml:"url,omitempty"`
	Method string `yaml:"method,omitempty" toml:"method,omitempty"`
	Target string `yaml:"target,omitempty" toml:"target,omitempty"`
	Value  string `yaml:"value,omitempty" toml:"value,omitempty"`
}

const (
	OpRename   = "rename"
	OpMove     = "move"
	OpSelect   = "select"
	OpDeselect = "deselect"
	OpRetarget = "retarget"
	OpSet      = "set"
	OpCreate   = "create"
	OpDelete   = "delete"
)

// LoadPlan reads a plan file; .toml files are TOML, everything else YAML
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceUnavailable, "read plan %s", path)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	return ParsePlan(data, format)
}

// ParsePlan decodes a plan in the given format ("yaml" or "toml")
func ParsePlan(data []byte, format string) (*Plan, error) {
	var plan Plan
	var err error
	switch strings.ToLower(format) {
	case "toml":
		err = toml.Unmarshal(data, &plan)
	case "yaml", "yml", "":
		err = yaml.Unmarshal(data, &plan)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown plan format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidFormat, "decode plan")
	}

	for i, step := range plan.Steps {
		if err := step.check(); err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "step %d", i+1)
		}
	}
	return &plan, nil
}

func (st Step) check() error {
	need := func(fields ...string) error {
		values := map[string]string{"group": st.Group, "to": st.To, "url": st.URL, "target": st.Target}
		for _, f := range fields {
			if strings.TrimSpace(values[f]) == "" {
				return fmt.Errorf("%s: %q is required", st.Op, f)
			}
		}
		return nil
	}

	switch st.Op {
	case OpRename:
		return need("group", "to")
	case OpMove:
		return need("url", "to")
	case OpSelect, OpDeselect:
		if st.URL == "" && st.Group == "" {
			return fmt.Errorf("%s: \"url\" or \"group\" is required", st.Op)
		}
		return nil
	case OpRetarget:
		return need("url", "target")
	case OpSet:
		return need("url")
	case OpCreate:
		return nil
	case OpDelete:
		return need("group")
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

// Apply runs every step in order and stops at the first failure. Steps that
// address a URL apply to every bookmark with that URL.
func (s *Session) Apply(plan *Plan) error {
	for i, step := range plan.Steps {
		if err := s.applyStep(step); err != nil {
			return fmt.Errorf("plan step %d (%s): %w", i+1, step.Op, err)
		}
		s.logger.Debug().Int("step", i+1).Str("op", step.Op).Msg("Plan step applied")
	}
	return nil
}

func (s *Session) applyStep(st Step) error {
	switch st.Op {
	case OpRename:
		return s.RenameGroup(st.Group, st.To)
	case OpCreate:
		_, err := s.CreateGroup(st.Group)
		return err
	case OpDelete:
		return s.DeleteGroup(st.Group)
	case OpSelect, OpDeselect:
		selected := st.Op == OpSelect
		if st.URL == "" {
			return s.SelectGroup(st.Group, selected)
		}
		return s.eachByURL(st.URL, func(id string) error { return s.SetSelected(id, selected) })
	case OpMove:
		return s.eachByURL(st.URL, func(id string) error { return s.MoveBookmark(id, st.To) })
	case OpRetarget:
		return s.eachByURL(st.URL, func(id string) error { return s.Retarget(id, model.Target(st.Target)) })
	case OpSet:
		return s.eachByURL(st.URL, func(id string) error {
			return s.SetMatch(id, model.Method(st.Method), model.Target(st.Target), st.Value)
		})
	}
	return errors.Newf(errors.ErrInvalidInput, "unknown op %q", st.Op)
}

// eachByURL resolves url to bookmark ids first so fn may lock the session
func (s *Session) eachByURL(url string, fn func(id string) error) error {
	var matched []string
	err := s.edit("find bookmark", func(c *model.Collection) error {
		for _, b := range c.FindByURL(url) {
			matched = append(matched, b.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		return errors.Newf(errors.ErrNotFound, "no bookmark with url %q", url)
	}

	for _, id := range matched {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}
