package rules

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schneison/unima/internal/core/domain"
)

func decodeStructures(t *testing.T, data string) []Structure {
	t.Helper()
	var out []Structure
	require.NoError(t, json.Unmarshal([]byte(data), &out))
	return out
}

func TestCreatePath_SortsByWeight(t *testing.T) {
	structures := decodeStructures(t, `[
		{"path": ["a/"], "rank": {"weight": 2}},
		{"path": ["b/"], "rank": {"weight": 1}}
	]`)

	path, err := CreatePath(structures, NewContext("m"), NewSession())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("b", "a")+string(filepath.Separator), path)
}

func TestCreatePath_EqualWeightsKeepOrder(t *testing.T) {
	structures := decodeStructures(t, `[
		{"path": ["first"]},
		{"path": ["second"]},
		{"path": ["zero"], "rank": {"weight": -1}}
	]`)

	path, err := CreatePath(structures, NewContext("m"), NewSession())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("zero", "first", "second"), path)
}

func TestCreatePath_DominantDiscardsEarlier(t *testing.T) {
	structures := decodeStructures(t, `[
		{"path": ["ignored"]},
		{"path": ["only"], "rank": {"dominant": true, "weight": 5}},
		{"path": ["after"]},
		{"path": ["late-dominant"], "rank": {"dominant": true}}
	]`)

	path, err := CreatePath(structures, NewContext("m"), NewSession())

	require.NoError(t, err)
	assert.Equal(t, "only", path)
}

func TestCreatePath_SkipsFailingCriteria(t *testing.T) {
	structures := decodeStructures(t, `[
		{"criteria": {"type": "name_end", "value": "zip"}, "path": ["archives"], "rank": {"dominant": true}},
		{"criteria": {"type": "name_end", "value": "pdf"}, "path": ["documents"]}
	]`)
	ctx := NewContext("m")
	ctx.FileName = "script.pdf"

	path, err := CreatePath(structures, ctx, NewSession())

	require.NoError(t, err)
	assert.Equal(t, "documents", path)
}

func TestCreatePath_ProvidedMembers(t *testing.T) {
	structures := decodeStructures(t, `[{
		"providers": [
			{"type": "section", "variant": "name"},
			{"type": "tag", "tag": "week"}
		],
		"path": [{"provider": 0}, "/Woche_", {"provider": 1}, {"provider": 7}]
	}]`)
	ctx := NewContext("m")
	ctx.SectionName = "Uebungen"
	ctx.Tags["week"] = "04"

	path, err := CreatePath(structures, ctx, NewSession())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Uebungen", "Woche_04"), path)
}

func TestCreatePath_IgnoresSingleProvider(t *testing.T) {
	structures := decodeStructures(t, `[{
		"provider": {"type": "text", "value": "unused"},
		"providers": [{"type": "tag", "tag": "week"}],
		"path": ["Woche_", {"provider": 0}]
	}]`)
	ctx := NewContext("m")
	ctx.Tags["week"] = "02"

	path, err := CreatePath(structures, ctx, NewSession())

	require.NoError(t, err)
	assert.Equal(t, "Woche_02", path)
}

func TestCreatePath_NoMatchIsEmpty(t *testing.T) {
	path, err := CreatePath(nil, NewContext("m"), NewSession())

	require.NoError(t, err)
	assert.Equal(t, "", path)
}

func TestCreatePath_ProviderErrorPropagates(t *testing.T) {
	structures := decodeStructures(t, `[{"providers": [{"type": "weather"}], "path": [{"provider": 0}]}]`)

	_, err := CreatePath(structures, NewContext("m"), NewSession())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestJoinPath(t *testing.T) {
	sep := string(filepath.Separator)

	assert.Equal(t, "", JoinPath())
	assert.Equal(t, "", JoinPath("", ""))
	assert.Equal(t, filepath.Join("a", "b"), JoinPath("a", "", "b"))
	assert.Equal(t, filepath.Join("a", "b")+sep, JoinPath("a/", "b/"))
	assert.Equal(t, filepath.Join("a", "b"), JoinPath("a/", "b"))
	assert.Equal(t, "a"+sep, JoinPath("a/", ""))
}
