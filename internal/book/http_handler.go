package book

import (
	"net/http"

	"opdsapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Download handles GET /book/{identifier}
// @Summary Redirect to a download file
// @Description 302 to the first file of the item whose name matches glob_pattern
// @Tags book
// @Param identifier path string true "archive.org identifier"
// @Param glob_pattern query string false "File name glob, e.g. *pdf"
// @Success 302
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /book/{identifier} [get]
func (h *HTTPHandler) Download(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")
	if identifier == "" {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "identifier is required", nil)
		return
	}

	target, err := h.service.DownloadURL(r.Context(), identifier, r.URL.Query().Get("glob_pattern"), httpx.ClientIP(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Audiobook handles GET /audiobooks/{identifier}
// @Summary Audiobook manifest
// @Tags book
// @Produce application/audiobook+json
// @Param identifier path string true "archive.org identifier"
// @Success 200 {object} Manifest
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /audiobooks/{identifier} [get]
func (h *HTTPHandler) Audiobook(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")
	if identifier == "" {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "identifier is required", nil)
		return
	}

	manifest, err := h.service.Audiobook(r.Context(), identifier, httpx.ClientIP(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MediaTypeAudiobook, manifest)
}
