package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/ai"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/analyzer"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/config"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/db"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/knowledge"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/qa"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/repository"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/storage"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

func failingGenerator() *fakeGenerator {
	return &fakeGenerator{err: ai.ErrServiceUnavailable}
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("bucket unavailable")
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStorage) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

type documentFixture struct {
	service DocumentService
	index   *knowledge.Index
	repo    repository.DocumentRepository
}

func newDocumentFixture(t *testing.T, gen *fakeGenerator, store storage.Storage) documentFixture {
	t.Helper()
	logger := utils.NewNopLogger()
	repo := repository.NewDocumentRepository(newTestDB(t))
	index := knowledge.NewIndex()

	deps := DocumentDeps{
		Repo:        repo,
		Analyzer:    analyzer.New(gen, logger),
		QA:          qa.NewService(gen, index, config.Default().Knowledge, logger),
		Index:       index,
		MaxFileSize: 1 << 20,
		Logger:      logger,
	}
	if store != nil {
		deps.Storage = store
	}
	return documentFixture{service: NewDocumentService(deps), index: index, repo: repo}
}
