package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schneison/unima/internal/core/domain"
)

func resetMembersFlags() {
	membersArch = string(domain.ArchitectureStructure)
	membersDescending = false
	membersSearch = ""
	membersSections = false
	actionArch = string(domain.ArchitectureStructure)
}

func TestMembersShowCmd_RendersTree(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetMembersFlags()
	ts.members.root = testTree()

	out, err := execute("members", "show", "algo")

	require.NoError(t, err)
	assert.Contains(t, out, "Vorlesung")
	assert.Contains(t, out, "VL01.pdf")
	assert.Contains(t, out, "#2 file_open")
	assert.Contains(t, out, "[kind=document, nr=1]")
	assert.Contains(t, out, "#3 file_download")
	assert.Contains(t, out, "hidden")
	assert.Equal(t, domain.ArchitectureOptions{
		Type: domain.ArchitectureStructure, Sorting: domain.SortAscending,
	}, ts.members.opts)
}

func TestMembersShowCmd_Options(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetMembersFlags()
	ts.members.root = testTree()

	_, err := execute("members", "show", "--arch", "source", "--desc", "--search", "vl", "algo")

	require.NoError(t, err)
	assert.Equal(t, domain.ArchitectureOptions{
		Type: domain.ArchitectureSource, Sorting: domain.SortDescending, SearchTerm: "vl",
	}, ts.members.opts)
}

func TestMembersShowCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer resetMembersFlags()

	out, err := execute("members", "show", "algo")

	require.NoError(t, err)
	assert.Contains(t, out, "No members found.")
}

func TestMembersShowCmd_Sections(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetMembersFlags()
	ts.members.sections = map[int]*domain.SectionItem{
		1: {Index: 1, Children: []domain.SectionChild{{
			Source:   domain.Source{ID: 1, Title: "Folien", Type: domain.LinkResource},
			Children: []domain.Source{{ID: 2, Title: "VL01.pdf", Type: domain.LinkResource}},
		}}},
	}

	out, err := execute("members", "show", "--sections", "algo")

	require.NoError(t, err)
	assert.Contains(t, out, "Section 1")
	assert.Contains(t, out, "Folien")
	assert.Contains(t, out, "VL01.pdf")
}

func TestMembersActionCmd_Open(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetMembersFlags()
	ts.members.result = "/s/VL01.pdf"

	out, err := execute("members", "action", "2", "file_open")

	require.NoError(t, err)
	assert.Equal(t, "/s/VL01.pdf\n", out)
	assert.Equal(t, []domain.MemberAction{domain.ActionFileOpen}, ts.members.actions)
}

func TestMembersActionCmd_DownloadWaits(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetMembersFlags()
	ts.downloads.results = []domain.DownloadResult{{Element: domain.DownloadElement{SourceID: 2, Path: "/s/VL01.pdf"}}}

	out, err := execute("members", "action", "2", "file_download")

	require.NoError(t, err)
	assert.Contains(t, out, "Saved /s/VL01.pdf")
}

func TestMembersActionCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetMembersFlags()
	ts.members.err = errors.New("boom")

	_, err := execute("members", "action", "2", "file_open")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply file_open")
}

func TestMembersHideAndMark(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("members", "hide", "2")
	require.NoError(t, err)
	_, err = execute("members", "mark", "2", "false")
	require.NoError(t, err)

	require.Len(t, ts.members.sources, 1)
	assert.Equal(t, int64(2), ts.members.sources[0].ID)
	assert.False(t, *ts.members.sources[0].Visible)
	require.Len(t, ts.members.edits, 1)
	assert.False(t, *ts.members.edits[0].Marked)

	_, err = execute("members", "mark", "2", "maybe")
	assert.Error(t, err)
}
