package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlPlan = `
steps:
  - op: rename
    group: Work
    to: Office
  - op: retarget
    url: https://wiki.example.com/runbook
    target: page-title-ignore-case
  - op: deselect
    group: News
  - op: create
    group: Later
`

const tomlPlan = `
[[steps]]
op = "move"
url = "https://news.ycombinator.com/"
to = "Work"

[[steps]]
op = "set"
url = "https://www.jira.example.com/browse/OPS"
method = "equal"
target = "href"
value = "https://www.jira.example.com/browse/OPS"
`

func TestParsePlan_YAML(t *testing.T) {
	plan, err := ParsePlan([]byte(yamlPlan), "yaml")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 4)
	assert.Equal(t, Step{Op: OpRename, Group: "Work", To: "Office"}, plan.Steps[0])
}

func TestParsePlan_TOML(t *testing.T) {
	plan, err := ParsePlan([]byte(tomlPlan), "toml")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "equal", plan.Steps[1].Method)
}

func TestParsePlan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.ErrorCode
	}{
		{"unknown op", "steps:\n  - op: merge\n", errors.ErrInvalidInput},
		{"missing field", "steps:\n  - op: rename\n    group: Work\n", errors.ErrInvalidInput},
		{"select without target", "steps:\n  - op: select\n", errors.ErrInvalidInput},
		{"malformed", "steps: [", errors.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.data), "yaml")
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err))
		})
	}

	_, err := ParsePlan([]byte(""), "ini")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestLoadPlan_ByExtension(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "edits.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlPlan), 0644))

	plan, err := LoadPlan(tomlPath)
	require.NoError(t, err)
	assert.Len(t, plan.Steps, 2)

	_, err = LoadPlan(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceUnavailable))
}

func TestApply_YAMLPlan(t *testing.T) {
	s := loaded(t)
	plan, err := ParsePlan([]byte(yamlPlan), "yaml")
	require.NoError(t, err)

	require.NoError(t, s.Apply(plan))

	res, err := s.Export()
	require.NoError(t, err)

	rules := res.Document.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "Office", rules[0].GroupName)
	assert.Equal(t, []model.TitleMatch{{Method: "includes", Value: "Runbook", IgnoreCase: true}}, rules[0].TitleMatches)
	assert.True(t, s.Collection().HasGroup("Later"))
}

func TestApply_TOMLPlan(t *testing.T) {
	s := loaded(t)
	plan, err := ParsePlan([]byte(tomlPlan), "toml")
	require.NoError(t, err)

	require.NoError(t, s.Apply(plan))

	res, err := s.Export()
	require.NoError(t, err)

	rules := res.Document.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, model.URLMatch{
		Method: "equal", Target: "href", Value: "https://www.jira.example.com/browse/OPS",
	}, rules[0].URLMatches[0])
	assert.Len(t, rules[0].URLMatches, 3)
}

func TestApply_UnknownURL(t *testing.T) {
	s := loaded(t)
	err := s.Apply(&Plan{Steps: []Step{{Op: OpMove, URL: "https://missing.example/", To: "Work"}}})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.Contains(t, err.Error(), "plan step 1 (move)")
}

func TestApply_GroupNamesAreCaseSensitive(t *testing.T) {
	s := loaded(t)

	err := s.Apply(&Plan{Steps: []Step{{Op: OpRename, Group: "bookmarks bar", To: "Daily"}}})
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	require.NoError(t, s.Apply(&Plan{Steps: []Step{{Op: OpRename, Group: model.DefaultFolder, To: "Daily"}}}))
	assert.True(t, s.Collection().HasGroup("Daily"))
}
