package model

// URLMatch matches a tab's hostname or full URL
type URLMatch struct {
	Method Method `json:"method"`
	Target Target `json:"target"`
	Value  string `json:"value"`
}

// TitleMatch matches a tab's page title
type TitleMatch struct {
	Method     Method `json:"method"`
	Value      string `json:"value"`
	IgnoreCase bool   `json:"ignoreCase,omitempty"`
}

// Rule maps the tabs matched by any of its conditions to one tab group
type Rule struct {
	ID           string       `json:"id"`
	Enabled      bool         `json:"enabled"`
	RuleName     string       `json:"ruleName"`
	GroupName    string       `json:"groupName"`
	URLMatches   []URLMatch   `json:"urlMatches"`
	TitleMatches []TitleMatch `json:"titleMatches"`
}

// NewRule creates an enabled rule for a folder with empty match lists
func NewRule(id, folder string) *Rule {
	return &Rule{
		ID:           id,
		Enabled:      true,
		RuleName:     folder,
		GroupName:    folder,
		URLMatches:   []URLMatch{},
		TitleMatches: []TitleMatch{},
	}
}

// MatchCount returns the total number of URL and title matches
func (r *Rule) MatchCount() int {
	return len(r.URLMatches) + len(r.TitleMatches)
}

// HasURLValue reports whether a URL match with the given value already exists
func (r *Rule) HasURLValue(value string) bool {
	for _, m := range r.URLMatches {
		if m.Value == value {
			return true
		}
	}
	return false
}
