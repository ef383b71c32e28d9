package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/services"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

type ProjectHandler struct {
	responder
	service services.ProjectService
}

func NewProjectHandler(service services.ProjectService, logger *utils.Logger) *ProjectHandler {
	return &ProjectHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projects, err := h.service.List(r.Context(), models.ProjectFilter{
		Query:    q.Get("q"),
		Status:   models.ProjectStatus(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := h.decodeJSON(w, r, &p); err != nil {
		h.respondError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), &p)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var patch models.ProjectPatch
	if err := h.decodeJSON(w, r, &patch); err != nil {
		h.respondError(w, err)
		return
	}

	p, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
