package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_MapsAppErrors(t *testing.T) {
	h := responder{logger: utils.NewNopLogger()}

	tests := []struct {
		err    error
		status int
		kind   utils.ErrorKind
	}{
		{utils.NewNotFoundError("Document not found"), http.StatusNotFound, utils.KindNotFound},
		{fmt.Errorf("wrapped: %w", utils.NewDecodeError("bad bytes", nil)), http.StatusBadRequest, utils.KindDecode},
		{utils.NewStorageWriteError("disk full", nil), http.StatusInternalServerError, utils.KindStorageWrite},
		{fmt.Errorf("plain failure"), http.StatusInternalServerError, utils.KindInternal},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.respondError(rec, tt.err)

		assert.Equal(t, tt.status, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tt.kind, body.Kind)
		assert.NotEmpty(t, body.Message)
	}
}
