package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIngester struct {
	mu    sync.Mutex
	names []string
	data  map[string]string
}

func (r *recordingIngester) Upload(_ context.Context, req *models.UploadRequest) (*models.StoredDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.Filename == "bad.txt" {
		return nil, utils.NewDecodeError("File bad.txt could not be decoded as text", nil)
	}
	if r.data == nil {
		r.data = map[string]string{}
	}
	r.names = append(r.names, req.Filename)
	r.data[req.Filename] = string(req.File)
	return &models.StoredDocument{ID: "id-" + req.Filename}, nil
}

func (r *recordingIngester) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestAll_MovesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notice.txt", "Platform notice")
	writeFile(t, dir, "bad.txt", "whatever")
	writeFile(t, dir, ".hidden", "skip me")

	ing := &recordingIngester{}
	w := New(dir, 10*time.Millisecond, 1<<20, ing, utils.NewNopLogger())

	n, err := w.IngestAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"notice.txt"}, ing.ingested())

	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "notice.txt"))
	assert.FileExists(t, filepath.Join(dir, FailedDir, "bad.txt"))
	assert.FileExists(t, filepath.Join(dir, ".hidden"))
	assert.NoFileExists(t, filepath.Join(dir, "notice.txt"))
}

func TestIngestFile_TooLarge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.txt", "0123456789")

	ing := &recordingIngester{}
	w := New(dir, 0, 5, ing, utils.NewNopLogger())
	require.NoError(t, w.Prepare())

	err := w.IngestFile(context.Background(), filepath.Join(dir, "big.txt"))
	assert.Equal(t, utils.KindBadRequest, utils.KindOf(err))
	assert.Empty(t, ing.ingested())
	assert.FileExists(t, filepath.Join(dir, FailedDir, "big.txt"))
}

func TestMoveInto_AvoidsOverwrite(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, dst, "a.txt", "old")
	writeFile(t, src, "a.txt", "new")

	require.NoError(t, moveInto(filepath.Join(src, "a.txt"), dst))

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	old, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestRun_IngestsExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.txt", "already here")

	ing := &recordingIngester{}
	w := New(dir, 20*time.Millisecond, 1<<20, ing, utils.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(ing.ingested()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	writeFile(t, dir, "dropped.txt", "new arrival")

	require.Eventually(t, func() bool {
		return len(ing.ingested()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"existing.txt", "dropped.txt"}, ing.ingested())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
