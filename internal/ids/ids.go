// Package ids generates identifiers for bookmarks and rules. Ids are handed
// out once and never reused by the same generator.
package ids

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	RulePrefix     = "rule-"
	BookmarkPrefix = "bm-"

	suffixLen = 8
)

// Generator hands out ids that are unique for its lifetime
type Generator interface {
	Next(prefix string) string
}

// Random draws suffixes from UUIDv4 values and retries on collision
type Random struct {
	mu   sync.Mutex
	seen map[string]struct{}
	// source is replaceable for tests
	source func() string
}

// NewRandom creates a generator with an empty collision set
func NewRandom() *Random {
	return &Random{
		seen:   make(map[string]struct{}),
		source: func() string { return uuid.NewString() },
	}
}

// Next returns prefix plus an 8 character hex suffix not seen before
func (r *Random) Next(prefix string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		raw := strings.ReplaceAll(r.source(), "-", "")
		if len(raw) < suffixLen {
			continue
		}
		id := prefix + raw[:suffixLen]
		if _, taken := r.seen[id]; taken {
			continue
		}
		r.seen[id] = struct{}{}
		return id
	}
}

// Sequential yields prefix1, prefix2, ... and is meant for deterministic output
type Sequential struct {
	mu sync.Mutex
	n  map[string]int
}

// NewSequential creates a counter-based generator
func NewSequential() *Sequential {
	return &Sequential{n: make(map[string]int)}
}

// Next returns the next counter value for prefix
func (s *Sequential) Next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n[prefix]++
	return fmt.Sprintf("%s%d", prefix, s.n[prefix])
}
