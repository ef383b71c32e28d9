package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/services"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

type ConnectionHandler struct {
	responder
	service services.ConnectionService
}

func NewConnectionHandler(service services.ConnectionService, logger *utils.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

func (h *ConnectionHandler) Templates(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Templates())
}

func (h *ConnectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, conns)
}

func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn models.Connection
	if err := h.decodeJSON(w, r, &conn); err != nil {
		h.respondError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), &conn)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *ConnectionHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	conn, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, conn)
}

func (h *ConnectionHandler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var patch models.ConnectionPatch
	if err := h.decodeJSON(w, r, &patch); err != nil {
		h.respondError(w, err)
		return
	}

	conn, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, conn)
}

func (h *ConnectionHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
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

func (h *ConnectionHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.service.Test(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *ConnectionHandler) SyncConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.service.Sync(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}
