package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schneison/unima/internal/core/domain"
)

// fakeDownloader serves fixed bodies by URL.
type fakeDownloader struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []string
	gate   chan struct{}
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{bodies: map[string]string{}, errs: map[string]error{}}
}

func (d *fakeDownloader) Download(_ context.Context, url string, w io.Writer) (string, error) {
	d.mu.Lock()
	d.calls = append(d.calls, url)
	gate := d.gate
	body, err := d.bodies[url], d.errs[url]
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	_, werr := io.WriteString(w, body)
	return "application/pdf", werr
}

func (d *fakeDownloader) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

const fileURL = "https://m/pluginfile.php/1/VL01.pdf"

func setupDownloadManager(t *testing.T) (*DownloadManager, *fakeDownloader, *resourceFixture) {
	t.Helper()
	f := newResourceFixture(t)
	downloader := newFakeDownloader()
	downloader.bodies[fileURL] = "%PDF-1.4"
	m := NewDownloadManager(f.controller, f.sources, f.resources, f.modules, downloader, NewProcessManager(), f.storageDir)
	return m, downloader, f
}

func waitDownloads(t *testing.T, m *DownloadManager) []domain.DownloadResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	return m.Results()
}

func TestDownloadManager_GetPath(t *testing.T) {
	m, _, f := setupDownloadManager(t)
	ctx := context.Background()

	path, err := m.GetPath(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.storageDir, "SoSe22", "Algo", "Vorlesung", "document", "VL01.pdf"), path)

	_, err = m.GetPath(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrMissingPath, "the folder has no resource")
}

func TestDownloadManager_Download(t *testing.T) {
	m, downloader, f := setupDownloadManager(t)
	ctx := context.Background()

	require.NoError(t, m.RequestDownload(ctx, 2, false))
	results := waitDownloads(t, m)

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	want := filepath.Join(f.storageDir, "SoSe22", "Algo", "Vorlesung", "document", "VL01.pdf")
	assert.Equal(t, domain.DownloadElement{SourceID: 2, URL: fileURL, Path: want}, results[0].Element)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	resource, err := f.resources.GetBySource(ctx, 2)
	require.NoError(t, err)
	assert.True(t, resource.Downloaded)
	require.NotNil(t, resource.Location)
	assert.Equal(t, want, *resource.Location)
	assert.Empty(t, m.Results(), "results are handed out once")

	// A checked request for an existing file does nothing.
	require.NoError(t, m.RequestDownload(ctx, 2, true))
	assert.Empty(t, waitDownloads(t, m))
	assert.Equal(t, 1, downloader.callCount())
}

func TestDownloadManager_DownloadFailure(t *testing.T) {
	m, downloader, f := setupDownloadManager(t)
	ctx := context.Background()
	downloader.errs[fileURL] = errors.New("forbidden")

	require.NoError(t, m.RequestDownload(ctx, 2, false))
	results := waitDownloads(t, m)

	require.Len(t, results, 1)
	assert.EqualError(t, results[0].Err, "forbidden")
	dir := filepath.Join(f.storageDir, "SoSe22", "Algo", "Vorlesung", "document")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the temporary file is removed")

	resource, err := f.resources.GetBySource(ctx, 2)
	require.NoError(t, err)
	assert.False(t, resource.Downloaded)
}

func TestDownloadManager_MissingPath(t *testing.T) {
	m, downloader, _ := setupDownloadManager(t)

	require.NoError(t, m.RequestDownload(context.Background(), 1, false))
	results := waitDownloads(t, m)

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, domain.ErrMissingPath)
	assert.Equal(t, "", results[0].Element.Path)
	assert.Zero(t, downloader.callCount())
}

func TestDownloadManager_CoalescesRequests(t *testing.T) {
	m, downloader, f := setupDownloadManager(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		id := f.sources.Put(domain.Source{
			URL: fileURL + "?v=" + string(rune('a'+i)), Module: "algo", Title: "copy", Type: domain.LinkResource,
		})
		f.resources.Put(domain.ResourceInfo{SourceID: id, Type: domain.ResourcePDF, FileName: "copy" + string(rune('a'+i)) + ".pdf"})
	}
	downloader.gate = make(chan struct{})

	require.NoError(t, m.RequestDownload(ctx, 2, false))
	require.Eventually(t, func() bool { return downloader.callCount() == 1 }, 5*time.Second, time.Millisecond)
	// Queued while the first drain is blocked.
	require.NoError(t, m.RequestDownload(ctx, 3, false))
	require.NoError(t, m.RequestDownload(ctx, 4, false))
	require.NoError(t, m.RequestDownload(ctx, 5, false))
	close(downloader.gate)

	results := waitDownloads(t, m)

	require.Len(t, results, 4)
	ids := map[int64]bool{}
	for _, r := range results {
		assert.NoError(t, r.Err)
		ids[r.Element.SourceID] = true
	}
	assert.Equal(t, map[int64]bool{2: true, 3: true, 4: true, 5: true}, ids)
}

func TestDownloadManager_FileExists(t *testing.T) {
	m, _, f := setupDownloadManager(t)
	ctx := context.Background()
	path, err := m.GetPath(ctx, 2)
	require.NoError(t, err)

	loc, err := m.FileExists(ctx, 2, false, false)
	require.NoError(t, err)
	assert.Equal(t, "", loc, "without a location only extensive checks probe the path")

	loc, err = m.FileExists(ctx, 2, true, true)
	require.NoError(t, err)
	assert.Equal(t, "", loc)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	loc, err = m.FileExists(ctx, 2, true, true)
	require.NoError(t, err)
	assert.Equal(t, path, loc)
	resource, _ := f.resources.GetBySource(ctx, 2)
	assert.True(t, resource.Downloaded)
	assert.Equal(t, path, *resource.Location)

	require.NoError(t, os.Remove(path))
	loc, err = m.FileExists(ctx, 2, false, true)
	require.NoError(t, err)
	assert.Equal(t, "", loc)
	resource, _ = f.resources.GetBySource(ctx, 2)
	assert.False(t, resource.Downloaded)
	assert.Nil(t, resource.Location)

	loc, err = m.FileExists(ctx, 1, true, true)
	require.NoError(t, err)
	assert.Equal(t, "", loc, "sources without a resource never exist")
}

func TestDownloadManager_DeleteFile(t *testing.T) {
	m, _, f := setupDownloadManager(t)
	ctx := context.Background()
	require.NoError(t, m.RequestDownload(ctx, 2, false))
	results := waitDownloads(t, m)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	removed, err := m.DeleteFile(ctx, 2)

	require.NoError(t, err)
	assert.True(t, removed)
	_, statErr := os.Stat(results[0].Element.Path)
	assert.True(t, os.IsNotExist(statErr))
	resource, _ := f.resources.GetBySource(ctx, 2)
	assert.False(t, resource.Downloaded)
	assert.Nil(t, resource.Location)

	removed, err = m.DeleteFile(ctx, 2)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = m.DeleteFile(ctx, 1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDownloadManager_WithoutDownloader(t *testing.T) {
	f := newResourceFixture(t)
	m := NewDownloadManager(f.controller, f.sources, f.resources, f.modules, nil, nil, f.storageDir)

	require.NoError(t, m.RequestDownload(context.Background(), 2, false))
	results := waitDownloads(t, m)

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, domain.ErrMissingCredentials)
}
