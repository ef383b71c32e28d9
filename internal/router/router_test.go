package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/ai"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/analyzer"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/config"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/db"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/handlers"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/knowledge"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/qa"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/repository"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/services"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", ai.ErrServiceUnavailable
}

type alwaysSucceeds struct{}

func (alwaysSucceeds) TestSucceeds() bool       { return true }
func (alwaysSucceeds) SyncOutcome() (bool, int) { return true, 3 }

const testMaxFileSize = 64 << 10

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := utils.NewNopLogger()

	database, err := db.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	gen := unavailableGenerator{}
	index := knowledge.NewIndex()
	docs := services.NewDocumentService(services.DocumentDeps{
		Repo:        repository.NewDocumentRepository(database),
		Analyzer:    analyzer.New(gen, logger),
		QA:          qa.NewService(gen, index, config.Default().Knowledge, logger),
		Index:       index,
		MaxFileSize: testMaxFileSize,
		Logger:      logger,
	})
	conns := services.NewConnectionService(repository.NewConnectionRepository(database), alwaysSucceeds{}, 0, 0, logger)
	projects := services.NewProjectService(repository.NewProjectRepository(database), logger)

	return NewRouter(Services{
		Documents:   docs,
		Connections: conns,
		Projects:    projects,
		MaxFileSize: testMaxFileSize,
	}, logger)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadFile(t *testing.T, h http.Handler, name string, content []byte, lastModified string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if lastModified != "" {
		require.NoError(t, mw.WriteField("lastModified", lastModified))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestUploadAndFetchDocument(t *testing.T) {
	h := newTestServer(t)

	rec := uploadFile(t, h, "incident.txt", []byte("Emergency brake malfunction on train T-07"), "1700000000000")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[models.StoredDocument](t, rec)
	assert.Equal(t, "Safety Document", doc.Type)
	assert.Equal(t, "Safety", doc.Department)
	assert.Equal(t, models.PriorityHigh, doc.Priority)
	assert.Equal(t, int64(1700000000000), doc.FileData.LastModified)
	assert.Equal(t, "text/plain", doc.FileData.Type)

	rec = do(t, h, http.MethodGet, "/api/v1/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doc.ID, decode[models.StoredDocument](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/api/v1/documents?priority=HIGH", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.StoredDocument](t, rec), 1)
}

func TestUpload_Errors(t *testing.T) {
	h := newTestServer(t)

	rec := uploadFile(t, h, "broken.txt", []byte{'a', 0xc3, 0x28}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.KindDecode, decode[handlers.ErrorResponse](t, rec).Kind)

	rec = uploadFile(t, h, "big.txt", bytes.Repeat([]byte("a"), testMaxFileSize+1), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.KindBadRequest, decode[handlers.ErrorResponse](t, rec).Kind)

	rec = uploadFile(t, h, "a.txt", []byte("x"), "yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/documents/upload", "not multipart")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	h := newTestServer(t)

	doc := decode[models.StoredDocument](t, uploadFile(t, h, "budget.txt", []byte("Annual budget review"), ""))

	rec := do(t, h, http.MethodPatch, "/api/v1/documents/"+doc.ID, map[string]string{"title": "Budget 2025"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Budget 2025", decode[models.StoredDocument](t, rec).Title)

	rec = do(t, h, http.MethodPatch, "/api/v1/documents/"+doc.ID, map[string]string{"originalContent": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/documents/search?q=budget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	search := decode[models.SearchResponse](t, rec)
	assert.Len(t, search.Documents, 1)
	assert.NotEmpty(t, search.Answer)

	rec = do(t, h, http.MethodGet, "/api/v1/documents/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.StorageStats](t, rec).Count)

	rec = do(t, h, http.MethodGet, "/api/v1/documents/"+doc.ID+"/summary?kind=technical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "technical", decode[map[string]string](t, rec)["kind"])

	rec = do(t, h, http.MethodGet, "/api/v1/documents/"+doc.ID+"/summary?kind=poem", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/documents/"+doc.ID+"/file", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/documents/"+doc.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/documents/"+doc.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, utils.KindNotFound, decode[handlers.ErrorResponse](t, rec).Kind)
}

func TestAskAndRebuild(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/ask", map[string]string{"question": "What happened?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, qa.NoKnowledgeBaseMessage, decode[models.AskResponse](t, rec).Answer)

	uploadFile(t, h, "a.txt", []byte("Escalator repair at Aluva"), "")
	uploadFile(t, h, "b.txt", []byte("Ticket revenue"), "")

	rec = do(t, h, http.MethodPost, "/api/v1/knowledge/rebuild", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[map[string]int](t, rec)["entries"])

	rec = do(t, h, http.MethodPost, "/api/v1/ask", map[string]string{"question": "escalator"})
	require.Equal(t, http.StatusOK, rec.Code)
	answer := decode[models.AskResponse](t, rec).Answer
	assert.True(t, strings.Contains(answer, "unavailable"), answer)
}

func TestExportImport(t *testing.T) {
	h := newTestServer(t)
	uploadFile(t, h, "a.txt", []byte("one"), "")
	uploadFile(t, h, "b.txt", []byte("two"), "")

	rec := do(t, h, http.MethodGet, "/api/v1/documents/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := decode[[]models.StoredDocument](t, rec)
	require.Len(t, exported, 2)

	rec = do(t, h, http.MethodPost, "/api/v1/documents/import", exported[:1])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["imported"])

	rec = do(t, h, http.MethodGet, "/api/v1/documents", nil)
	assert.Len(t, decode[[]models.StoredDocument](t, rec), 1)
}

func TestConnectionsAPI(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/connections/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ConnectionTemplate](t, rec), 6)

	rec = do(t, h, http.MethodPost, "/api/v1/connections", `{
		"name": "Depot scanner",
		"type": "scanner",
		"config": {"scannerIp": "10.0.0.5", "scannerModel": "Ricoh MP", "outputFolder": "/scans"}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conn := decode[map[string]any](t, rec)
	id := conn["id"].(string)
	assert.Equal(t, "pending", conn["status"])

	rec = do(t, h, http.MethodPost, "/api/v1/connections", `{"name": "x", "type": "fax", "config": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/connections/"+id+"/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[models.ConnectionSyncResult](t, rec).DocumentsProcessed)

	rec = do(t, h, http.MethodGet, "/api/v1/connections/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ConnectionStats{Total: 1, Connected: 1, TotalDocuments: 3}, decode[models.ConnectionStats](t, rec))

	rec = do(t, h, http.MethodPatch, "/api/v1/connections/"+id, map[string]string{"name": "Depot scanner 2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/connections/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/connections/"+id+"/test", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectsAPI(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/projects", map[string]any{
		"name":     "Water Metro link",
		"priority": "high",
		"team":     []string{"Planning"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[models.Project](t, rec)

	rec = do(t, h, http.MethodGet, "/api/v1/projects?priority=high&q=water", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Project](t, rec), 1)

	rec = do(t, h, http.MethodPatch, "/api/v1/projects/"+p.ID, map[string]any{"completion": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, decode[models.Project](t, rec).Completion)

	rec = do(t, h, http.MethodDelete, "/api/v1/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodOptions, "/api/v1/documents", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
