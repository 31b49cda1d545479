package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schneison/unima/internal/core/domain"
)

func TestStructureCmd_ListsPathsInOrder(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.members.root = testTree()

	out, err := execute("structure", "algo")

	require.NoError(t, err)
	first := strings.Index(out, "Vorlesung/VL01.pdf")
	second := strings.Index(out, "Vorlesung/VL02.pdf")
	require.NotEqual(t, -1, first)
	assert.Less(t, first, second)
}

func TestStructureCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.members.root = testTree()
	defer func() { structureJSON = false }()

	out, err := execute("structure", "--json", "algo")

	require.NoError(t, err)
	var entries []structureEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Equal(t, []structureEntry{
		{SourceID: 2, Path: "Vorlesung/VL01.pdf"},
		{SourceID: 3, Path: "Vorlesung/VL02.pdf"},
	}, entries)
}

func TestStructureCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("structure", "algo")

	require.NoError(t, err)
	assert.Contains(t, out, "No files found.")
}

func TestStructureCmd_UnknownModule(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.members.err = domain.ErrNotFound

	_, err := execute("structure", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStructureCmd_RequiresModule(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("structure")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestTagsResetCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("tags", "reset", "algo")

	require.NoError(t, err)
	assert.Contains(t, out, "Tags of algo reset.")
	assert.Equal(t, []string{"algo"}, ts.controller.reset)
}
