package router

import (
	"net/http"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/handlers"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/middleware"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/services"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"

	"github.com/gorilla/mux"
)

// Services bundles what the router exposes.
type Services struct {
	Documents   services.DocumentService
	Connections services.ConnectionService
	Projects    services.ProjectService
	MaxFileSize int64
}

func NewRouter(svc Services, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	docHandler := handlers.NewDocumentHandler(svc.Documents, svc.MaxFileSize, logger)
	connHandler := handlers.NewConnectionHandler(svc.Connections, logger)
	projectHandler := handlers.NewProjectHandler(svc.Projects, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Fixed document paths must precede /documents/{id}.
	api.HandleFunc("/documents/upload", docHandler.UploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/search", docHandler.SearchDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/stats", docHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/documents/export", docHandler.Export).Methods(http.MethodGet)
	api.HandleFunc("/documents/import", docHandler.Import).Methods(http.MethodPost)
	api.HandleFunc("/documents", docHandler.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.UpdateDocument).Methods(http.MethodPatch)
	api.HandleFunc("/documents/{id}", docHandler.DeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/insights", docHandler.GetInsights).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/summary", docHandler.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/similar", docHandler.GetSimilar).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/file", docHandler.DownloadFile).Methods(http.MethodGet)

	api.HandleFunc("/ask", docHandler.Ask).Methods(http.MethodPost)
	api.HandleFunc("/knowledge/rebuild", docHandler.RebuildKnowledge).Methods(http.MethodPost)

	api.HandleFunc("/connections/templates", connHandler.Templates).Methods(http.MethodGet)
	api.HandleFunc("/connections/stats", connHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/connections", connHandler.ListConnections).Methods(http.MethodGet)
	api.HandleFunc("/connections", connHandler.CreateConnection).Methods(http.MethodPost)
	api.HandleFunc("/connections/{id}", connHandler.GetConnection).Methods(http.MethodGet)
	api.HandleFunc("/connections/{id}", connHandler.UpdateConnection).Methods(http.MethodPatch)
	api.HandleFunc("/connections/{id}", connHandler.DeleteConnection).Methods(http.MethodDelete)
	api.HandleFunc("/connections/{id}/test", connHandler.TestConnection).Methods(http.MethodPost)
	api.HandleFunc("/connections/{id}/sync", connHandler.SyncConnection).Methods(http.MethodPost)

	api.HandleFunc("/projects", projectHandler.ListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods(http.MethodDelete)

	// CORS wraps the router so preflight requests reach it without a
	// matching route.
	return middleware.CORS()(r)
}
