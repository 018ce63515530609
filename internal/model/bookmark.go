package model

import "strings"

// DefaultFolder is the group for bookmarks that have no enclosing folder
const DefaultFolder = "Bookmarks Bar"

// Method is the comparison operator of a match
type Method string

const (
	MethodIncludes Method = "includes"
	MethodEqual    Method = "equal"
)

// Valid reports whether m is a known method
func (m Method) Valid() bool {
	return m == MethodIncludes || m == MethodEqual
}

// Target is the tab field a match is evaluated against
type Target string

const (
	TargetHostname            Target = "hostname"
	TargetHref                Target = "href"
	TargetPageTitle           Target = "page-title"
	TargetPageTitleIgnoreCase Target = "page-title-ignore-case"
)

// Valid reports whether t is a known target
func (t Target) Valid() bool {
	switch t {
	case TargetHostname, TargetHref, TargetPageTitle, TargetPageTitleIgnoreCase:
		return true
	}
	return false
}

// IsTitle reports whether t matches against the page title
func (t Target) IsTitle() bool {
	return strings.HasPrefix(string(t), "page-title")
}

// Bookmark is a single bookmark together with the match it will export
type Bookmark struct {
	ID        string `json:"id" yaml:"id"`
	URL       string `json:"url" yaml:"url"`
	Title     string `json:"title" yaml:"title"`
	GroupName string `json:"groupName" yaml:"group"`
	Selected  bool   `json:"selected" yaml:"selected"`
	Method    Method `json:"method" yaml:"method"`
	Target    Target `json:"target" yaml:"target"`
	Value     string `json:"value" yaml:"value"`
}
