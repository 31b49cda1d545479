package rules

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LoadGlobalAndModule(t *testing.T) {
	root := t.TempDir()
	writeRule(t, filepath.Join(root, "config", "tags", "week.json"),
		`{"name": "week", "values": {"type": "number", "start": 1, "end": 3}}`)
	writeRule(t, filepath.Join(root, "config", "structures", "global.json"),
		`{"path": ["global"], "rank": {"weight": 1}}`)

	modulePath := filepath.Join(root, "algo")
	writeRule(t, filepath.Join(modulePath, "config", "structures", "local.json"),
		`{"path": ["local"], "rank": {"weight": 0}}`)
	writeRule(t, filepath.Join(modulePath, "config", "classification", "kind.json"),
		`{"name": "kind", "action": {"type": "tag", "tag": "kind", "value": "any"}}`)

	reg := NewRegistry()
	require.NoError(t, reg.LoadGlobal(root))
	require.NoError(t, reg.LoadModule("algo", modulePath))

	assert.True(t, reg.IsLoaded("algo"))
	assert.Equal(t, []string{"week"}, reg.TagNames())
	items, ok := reg.TagItems("week")
	assert.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, items)

	structures := reg.Structures("algo")
	require.Len(t, structures, 2)
	assert.Equal(t, "global", structures[0].Path[0].Literal)

	ctx := NewContext("algo")
	require.NoError(t, reg.ApplyClassifications(ctx, NewSession()))
	assert.Equal(t, "any", ctx.Tags["kind"])

	path, err := reg.CreatePath(ctx, NewSession(), "algo")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("local", "global"), path)
}

func TestRegistry_LoadModuleOnce(t *testing.T) {
	modulePath := t.TempDir()
	rule := filepath.Join(modulePath, "config", "structures", "a.json")
	writeRule(t, rule, `{"path": ["v1"]}`)

	reg := NewRegistry()
	require.NoError(t, reg.LoadModule("m", modulePath))

	writeRule(t, rule, `{"path": ["v2"]}`)
	require.NoError(t, reg.LoadModule("m", modulePath))
	assert.Equal(t, "v1", reg.Structures("m")[0].Path[0].Literal)

	require.NoError(t, reg.ReloadModule("m", modulePath))
	assert.Equal(t, "v2", reg.Structures("m")[0].Path[0].Literal)
}

func TestRegistry_FailedReloadKeepsRules(t *testing.T) {
	modulePath := t.TempDir()
	rule := filepath.Join(modulePath, "config", "structures", "a.json")
	writeRule(t, rule, `{"path": ["v1"]}`)

	reg := NewRegistry()
	require.NoError(t, reg.LoadModule("m", modulePath))

	writeRule(t, rule, `{"path": "not-an-array"}`)
	require.Error(t, reg.ReloadModule("m", modulePath))

	assert.Equal(t, "v1", reg.Structures("m")[0].Path[0].Literal)
}

func TestRegistry_UnknownModule(t *testing.T) {
	reg := NewRegistry()

	assert.False(t, reg.IsLoaded("nope"))
	assert.Empty(t, reg.Classifications("nope"))
	assert.Empty(t, reg.Structures("nope"))
	_, ok := reg.TagItems("nope")
	assert.False(t, ok)
}
