package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opdsapi/internal/errs"
	"opdsapi/internal/logging"
)

func TestJSONSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-1"))

	JSONSuccess(w, r, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Meta    map[string]string `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "value", response.Data["key"])
	assert.Equal(t, "req-1", response.Meta["request_id"])
}

func TestWriteJSON_ContentType(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusOK, "application/opds+json", map[string]int{"n": 1})

	assert.Equal(t, "application/opds+json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusOK, "application/json", map[string]interface{}{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errs.CodeInternal)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"not found", errs.NotFound("section %q not found", "poetry"), http.StatusNotFound, errs.CodeNotFound, `section "poetry" not found`},
		{"invalid request", errs.InvalidRequest("page must be a positive integer"), http.StatusBadRequest, errs.CodeInvalidRequest, "page must be a positive integer"},
		{"invalid facet", errs.InvalidFacet("languages", "klingon", "unknown item"), http.StatusBadRequest, errs.CodeInvalidFacet, ""},
		{"provider", errs.Provider(errors.New("status 500: secret body"), "search failed"), http.StatusBadGateway, errs.CodeProvider, "search failed"},
		{"unavailable", errs.ProviderUnavailable(errors.New("circuit open"), "search unavailable"), http.StatusServiceUnavailable, errs.CodeProviderUnavailable, "search unavailable"},
		{"wrapped", fmt.Errorf("build: %w", errs.NotFound("gone")), http.StatusNotFound, errs.CodeNotFound, "gone"},
		{"unclassified", errors.New("dial tcp 10.0.0.5:5432: refused"), http.StatusInternalServerError, errs.CodeInternal, "An internal error occurred"},
		{"config", errs.Config(errors.New("bad yaml")), http.StatusInternalServerError, errs.CodeInternal, "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/catalog", nil)

			WriteError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.False(t, response.Success)
			assert.Equal(t, tt.wantCode, response.Error.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, response.Error.Message)
			}
			assert.NotContains(t, w.Body.String(), "secret body")
			assert.NotContains(t, w.Body.String(), "10.0.0.5")
		})
	}
}
