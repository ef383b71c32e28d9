package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/extractor"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/services"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

// Room for multipart boundaries and the other form fields.
const formOverhead = 1 << 20

type DocumentHandler struct {
	responder
	service     services.DocumentService
	maxFileSize int64
}

func NewDocumentHandler(service services.DocumentService, maxFileSize int64, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		responder:   responder{logger: logger},
		service:     service,
		maxFileSize: maxFileSize,
	}
}

func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	limitMsg := fmt.Sprintf("File size exceeds %d byte limit", h.maxFileSize)

	// Check Content-Length header first to reject oversized requests early
	if r.ContentLength > h.maxFileSize+formOverhead {
		h.respondError(w, utils.NewBadRequestError(limitMsg))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+formOverhead)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			h.respondError(w, utils.NewBadRequestError(limitMsg))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	var lastModified int64
	if raw := r.FormValue("lastModified"); raw != "" {
		lastModified, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(w, utils.NewBadRequestError("lastModified must be milliseconds since the epoch"))
			return
		}
	}

	contentType := extractor.DetectContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to read file"))
		return
	}
	if int64(len(data)) > h.maxFileSize {
		h.respondError(w, utils.NewBadRequestError(limitMsg))
		return
	}

	doc, err := h.service.Upload(r.Context(), &models.UploadRequest{
		File:         data,
		Filename:     header.Filename,
		ContentType:  contentType,
		LastModified: lastModified,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, doc)
}

// ListDocuments accepts at most one of the department, priority and type
// filters.
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var field models.DocumentField
	var value string
	for _, f := range []models.DocumentField{models.FieldDepartment, models.FieldPriority, models.FieldType} {
		v := r.URL.Query().Get(string(f))
		if v == "" {
			continue
		}
		if field != "" {
			h.respondError(w, utils.NewBadRequestError("Only one filter may be given"))
			return
		}
		field, value = f, v
	}
	if field == models.FieldPriority {
		p, ok := models.ParsePriority(value)
		if !ok {
			h.respondError(w, utils.NewBadRequestError("Priority must be high, medium or low"))
			return
		}
		value = string(p)
	}

	docs, err := h.service.List(r.Context(), field, value)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var patch models.DocumentPatch
	if err := h.decodeJSON(w, r, &patch); err != nil {
		h.respondError(w, err)
		return
	}

	doc, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
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

func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	insights, err := h.service.GetInsights(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, insights)
}

func (h *DocumentHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	kind := models.SummaryExecutive
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, ok := models.ParseSummaryKind(raw)
		if !ok {
			h.respondError(w, utils.NewBadRequestError("kind must be executive, technical or action-items"))
			return
		}
		kind = k
	}

	summary, err := h.service.GenerateSummary(r.Context(), id, kind)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"kind": string(kind), "summary": summary})
}

func (h *DocumentHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", services.DefaultSimilarLimit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	docs, err := h.service.FindSimilar(r.Context(), id, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, docs)
}

// DownloadFile streams the archived original upload.
func (h *DocumentHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	data, doc, err := h.service.OpenOriginal(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	contentType := doc.FileData.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(doc.FileData.Name)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write file", "error", err, "id", id)
	}
}

func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

func (h *DocumentHandler) Export(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.Export(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="documents-export.json"`)
	h.respondJSON(w, http.StatusOK, docs)
}

// Import replaces every stored document with the posted array.
func (h *DocumentHandler) Import(w http.ResponseWriter, r *http.Request) {
	var docs []models.StoredDocument
	if err := h.decodeJSON(w, r, &docs); err != nil {
		h.respondError(w, err)
		return
	}

	n, err := h.service.Import(r.Context(), docs)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (h *DocumentHandler) RebuildKnowledge(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RebuildKnowledgeIndex(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"entries": n})
}
