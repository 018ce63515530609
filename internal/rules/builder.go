// Package rules builds tab-group rule documents from grouped bookmarks.
package rules

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/ids"
	"github.com/ppiankov/tabrules/internal/model"
)

// Options configures a Builder
type Options struct {
	Policy Policy

	// IDs generates rule ids. When nil every Build draws from a fresh random generator.
	IDs ids.Generator

	// ExcludeFolders are glob patterns; matching groups never become rules
	ExcludeFolders []string

	// StrictHostnames fails the build when a hostname cannot be derived
	StrictHostnames bool
}

// Warning flags a bookmark that exported an empty value
type Warning struct {
	BookmarkID string `json:"bookmarkId"`
	Group      string `json:"group"`
	URL        string `json:"url"`
	Message    string `json:"message"`
}

// Result is the outcome of one Build
type Result struct {
	Document *model.RuleDocument
	Warnings []Warning
	Skipped  []string // groups that produced no rule
}

// Builder converts a Collection into a RuleDocument
type Builder struct {
	policy  Policy
	agg     aggregator
	ids     ids.Generator
	exclude []glob.Glob
	strict  bool
}

// NewBuilder compiles the options into a builder
func NewBuilder(opts Options) (*Builder, error) {
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "rule policy")
	}

	b := &Builder{
		policy: policy,
		agg:    newAggregator(policy),
		ids:    opts.IDs,
		strict: opts.StrictHostnames,
	}

	for _, pattern := range opts.ExcludeFolders {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid exclude pattern %q", pattern)
		}
		b.exclude = append(b.exclude, g)
	}

	return b, nil
}

// Policy returns the aggregation policy in use
func (b *Builder) Policy() Policy {
	return b.policy
}

// Build walks groups in order and emits one rule per group with at least one
// match. A collection that yields no rules is an EMPTY_RESULT error.
func (b *Builder) Build(c *model.Collection) (*Result, error) {
	gen := b.ids
	if gen == nil {
		gen = ids.NewRandom()
	}

	result := &Result{Document: model.NewRuleDocument()}

	for _, group := range c.Groups() {
		if b.excluded(group) {
			result.Skipped = append(result.Skipped, group)
			continue
		}

		var rule *model.Rule
		for _, bm := range c.GroupBookmarks(group) {
			if !b.agg.include(bm) {
				continue
			}

			if b.agg.value(bm) == "" {
				w := Warning{
					BookmarkID: bm.ID,
					Group:      group,
					URL:        bm.URL,
					Message:    fmt.Sprintf("no %s value could be derived", bm.Target),
				}
				if b.strict {
					return nil, errors.Newf(errors.ErrInvalidURL, "bookmark %q in %q: %s", bm.URL, group, w.Message).
						WithDetail("bookmark_id", bm.ID)
				}
				result.Warnings = append(result.Warnings, w)
			}

			if rule == nil {
				rule = model.NewRule("", group)
			}
			b.agg.add(rule, bm)
		}

		if rule == nil || rule.MatchCount() == 0 {
			result.Skipped = append(result.Skipped, group)
			continue
		}
		rule.ID = gen.Next(ids.RulePrefix)
		result.Document.Add(rule)
	}

	if result.Document.Len() == 0 {
		return nil, errors.New(errors.ErrEmptyResult, "no rules generated: every folder is empty or excluded").
			WithDetail("groups", len(c.Groups()))
	}

	return result, nil
}

func (b *Builder) excluded(group string) bool {
	for _, g := range b.exclude {
		if g.Match(group) {
			return true
		}
	}
	return false
}
