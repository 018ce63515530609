package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandom_Format(t *testing.T) {
	gen := NewRandom()
	id := gen.Next(RulePrefix)

	assert.True(t, strings.HasPrefix(id, "rule-"))
	assert.Len(t, id, len("rule-")+8)
}

func TestRandom_Unique(t *testing.T) {
	gen := NewRandom()
	seen := make(map[string]bool)

	for i := 0; i < 2000; i++ {
		id := gen.Next(RulePrefix)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRandom_RetriesOnCollision(t *testing.T) {
	values := []string{
		"aaaaaaaa-0000-0000-0000-000000000000",
		"aaaaaaaa-1111-1111-1111-111111111111",
		"bbbbbbbb-0000-0000-0000-000000000000",
	}
	gen := NewRandom()
	gen.source = func() string {
		v := values[0]
		values = values[1:]
		return v
	}

	assert.Equal(t, "rule-aaaaaaaa", gen.Next(RulePrefix))
	assert.Equal(t, "rule-bbbbbbbb", gen.Next(RulePrefix))
}

func TestSequential(t *testing.T) {
	gen := NewSequential()

	assert.Equal(t, "rule-1", gen.Next(RulePrefix))
	assert.Equal(t, "rule-2", gen.Next(RulePrefix))
	assert.Equal(t, "bm-1", gen.Next(BookmarkPrefix))
}
