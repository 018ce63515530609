package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	DocumentName    = "tab-groups-rules"
	DocumentVersion = 1

	metaKey = "meta"
)

// Meta identifies a rules document
type Meta struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// DefaultMeta returns the header written on every export
func DefaultMeta() Meta {
	return Meta{Name: DocumentName, Version: DocumentVersion}
}

// Entry is one keyed rule of a document
type Entry struct {
	Key  string
	Rule *Rule
}

// RuleDocument is the exported artifact: a meta header followed by rules
// keyed by id, in creation order
type RuleDocument struct {
	Meta    Meta
	HasMeta bool
	entries []Entry
}

// NewRuleDocument creates an empty document with the default meta header
func NewRuleDocument() *RuleDocument {
	return &RuleDocument{Meta: DefaultMeta(), HasMeta: true}
}

// Add appends r keyed by its id
func (d *RuleDocument) Add(r *Rule) {
	d.entries = append(d.entries, Entry{Key: r.ID, Rule: r})
}

// Entries returns the keyed rules in document order
func (d *RuleDocument) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Rules returns the rules in document order
func (d *RuleDocument) Rules() []*Rule {
	out := make([]*Rule, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.Rule)
	}
	return out
}

// Rule returns the rule stored under key
func (d *RuleDocument) Rule(key string) (*Rule, bool) {
	for _, e := range d.entries {
		if e.Key == key {
			return e.Rule, true
		}
	}
	return nil, false
}

// Len returns the number of rules
func (d *RuleDocument) Len() int {
	return len(d.entries)
}

// MarshalJSON writes meta first, then every rule under its key
func (d *RuleDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	meta, err := json.Marshal(d.Meta)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"meta":`)
	buf.Write(meta)

	for _, e := range d.entries {
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		rule, err := json.Marshal(e.Rule)
		if err != nil {
			return nil, fmt.Errorf("marshal rule %s: %w", e.Key, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rule)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a document keeping entry order and duplicate keys
func (d *RuleDocument) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("rules document must be a JSON object")
	}

	*d = RuleDocument{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		if key == metaKey {
			if err := dec.Decode(&d.Meta); err != nil {
				return fmt.Errorf("decode meta: %w", err)
			}
			d.HasMeta = true
			continue
		}

		var rule Rule
		if err := dec.Decode(&rule); err != nil {
			return fmt.Errorf("decode rule %s: %w", key, err)
		}
		d.entries = append(d.entries, Entry{Key: key, Rule: &rule})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
