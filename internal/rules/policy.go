package rules

import (
	"fmt"
	"strings"

	"github.com/ppiankov/tabrules/internal/model"
	"github.com/ppiankov/tabrules/internal/util"
)

// Policy selects how a group's bookmarks turn into matches
type Policy string

const (
	// PolicyEager exports every selected bookmark with its own method and target
	PolicyEager Policy = "eager"
	// PolicyLazy exports one hostname match per distinct host, ignoring edits
	PolicyLazy Policy = "lazy"
)

// ParsePolicy parses a policy name; empty means eager
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyEager:
		return PolicyEager, nil
	case PolicyLazy:
		return PolicyLazy, nil
	}
	return "", fmt.Errorf("unknown policy %q (supported: eager, lazy)", s)
}

// aggregator appends the match for one bookmark to a rule
type aggregator interface {
	// include reports whether the bookmark takes part in the export
	include(b *model.Bookmark) bool

	// value returns the value the bookmark would contribute
	value(b *model.Bookmark) string

	// add appends the bookmark's match; false when nothing was added
	add(r *model.Rule, b *model.Bookmark) bool
}

func newAggregator(p Policy) aggregator {
	if p == PolicyLazy {
		return lazyAggregator{}
	}
	return eagerAggregator{}
}

type eagerAggregator struct{}

func (eagerAggregator) include(b *model.Bookmark) bool {
	return b.Selected
}

func (eagerAggregator) value(b *model.Bookmark) string {
	return b.Value
}

func (eagerAggregator) add(r *model.Rule, b *model.Bookmark) bool {
	if b.Target.IsTitle() {
		r.TitleMatches = append(r.TitleMatches, model.TitleMatch{
			Method:     b.Method,
			Value:      b.Value,
			IgnoreCase: b.Target == model.TargetPageTitleIgnoreCase,
		})
		return true
	}

	r.URLMatches = append(r.URLMatches, model.URLMatch{
		Method: b.Method,
		Target: b.Target,
		Value:  b.Value,
	})
	return true
}

type lazyAggregator struct{}

func (lazyAggregator) include(*model.Bookmark) bool {
	return true
}

func (lazyAggregator) value(b *model.Bookmark) string {
	return util.Hostname(b.URL)
}

func (a lazyAggregator) add(r *model.Rule, b *model.Bookmark) bool {
	host := a.value(b)
	if host == "" || r.HasURLValue(host) {
		return false
	}

	r.URLMatches = append(r.URLMatches, model.URLMatch{
		Method: model.MethodIncludes,
		Target: model.TargetHostname,
		Value:  host,
	})
	return true
}
