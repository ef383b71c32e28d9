package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/gorilla/mux"
)

const maxJSONBody = 64 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Kind    utils.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

type responder struct {
	logger *utils.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h responder) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Kind: utils.KindInternal, Message: "Internal server error"}

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		body = ErrorResponse{Kind: appErr.Kind, Message: appErr.Message}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request error", "status", status, "kind", body.Kind, "error", err)
	} else {
		h.logger.Warn("Request rejected", "status", status, "kind", body.Kind, "error", body.Message)
	}

	h.respondJSON(w, status, body)
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func (h responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return utils.NewBadRequestError(fmt.Sprintf("Invalid request body: %v", err))
	}
	return nil
}

func pathID(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if id == "" {
		return "", utils.NewBadRequestError("ID is required")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, utils.NewBadRequestError(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}
