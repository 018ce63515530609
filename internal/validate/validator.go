// Package validate checks rule documents produced by tabrules or edited by hand.
package validate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/model"
)

// Severity ranks an issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a document
type Issue struct {
	Severity Severity `json:"severity"`
	Key      string   `json:"key,omitempty"`   // rule key, empty for document-level issues
	Field    string   `json:"field,omitempty"` // e.g. urlMatches[2].target
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	loc := "document"
	if i.Key != "" {
		loc = i.Key
	}
	if i.Field != "" {
		loc += "." + i.Field
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, loc, i.Message)
}

// Report collects the issues of one document
type Report struct {
	Rules  int     `json:"rules"`
	Issues []Issue `json:"issues"`
}

// Errors counts error-level issues
func (r *Report) Errors() int {
	return r.count(SeverityError)
}

// Warnings counts warning-level issues
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// HasErrors reports whether the document is invalid
func (r *Report) HasErrors() bool {
	return r.Errors() > 0
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

func (r *Report) add(s Severity, key, field, format string, args ...interface{}) {
	r.Issues = append(r.Issues, Issue{Severity: s, Key: key, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Decode parses a rules document
func Decode(data []byte) (*model.RuleDocument, error) {
	var doc model.RuleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidFormat, "decode rules document")
	}
	return &doc, nil
}

// File reads, decodes and validates the document at path
func File(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceUnavailable, "read %s", path)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Validate(doc), nil
}

// Validate checks the meta header and every rule
func Validate(doc *model.RuleDocument) *Report {
	report := &Report{Rules: doc.Len(), Issues: []Issue{}}

	if !doc.HasMeta {
		report.add(SeverityError, "", "meta", "missing meta entry")
	} else {
		if doc.Meta.Name != model.DocumentName {
			report.add(SeverityError, "", "meta.name", "expected %q, got %q", model.DocumentName, doc.Meta.Name)
		}
		if doc.Meta.Version != model.DocumentVersion {
			report.add(SeverityError, "", "meta.version", "expected %d, got %d", model.DocumentVersion, doc.Meta.Version)
		}
	}

	seenKeys := make(map[string]bool)
	seenGroups := make(map[string]string)

	for _, e := range doc.Entries() {
		if seenKeys[e.Key] {
			report.add(SeverityError, e.Key, "", "duplicate rule key")
		}
		seenKeys[e.Key] = true

		validateRule(report, e.Key, e.Rule)

		if g := e.Rule.GroupName; g != "" {
			if first, dup := seenGroups[g]; dup {
				report.add(SeverityWarning, e.Key, "groupName", "group %q is also targeted by %s", g, first)
			} else {
				seenGroups[g] = e.Key
			}
		}
	}

	if doc.Len() == 0 {
		report.add(SeverityWarning, "", "", "document contains no rules")
	}

	return report
}

func validateRule(report *Report, key string, r *model.Rule) {
	if r.ID != key {
		report.add(SeverityError, key, "id", "id %q does not match its key", r.ID)
	}
	if r.GroupName == "" {
		report.add(SeverityError, key, "groupName", "empty group name")
	}
	if r.RuleName == "" {
		report.add(SeverityWarning, key, "ruleName", "empty rule name")
	}
	if r.MatchCount() == 0 {
		report.add(SeverityError, key, "", "rule has no matches")
	}

	for i, m := range r.URLMatches {
		field := fmt.Sprintf("urlMatches[%d]", i)
		if !m.Method.Valid() {
			report.add(SeverityError, key, field+".method", "unknown method %q", m.Method)
		}
		if m.Target != model.TargetHostname && m.Target != model.TargetHref {
			report.add(SeverityError, key, field+".target", "unknown url target %q", m.Target)
		}
		if m.Value == "" {
			report.add(SeverityWarning, key, field+".value", "empty value matches every tab")
		}
	}

	for i, m := range r.TitleMatches {
		field := fmt.Sprintf("titleMatches[%d]", i)
		if !m.Method.Valid() {
			report.add(SeverityError, key, field+".method", "unknown method %q", m.Method)
		}
		if m.Value == "" {
			report.add(SeverityWarning, key, field+".value", "empty value matches every tab")
		}
	}
}
