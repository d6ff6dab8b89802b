package auth

import (
	"net/http"

	"opdsapi/internal/httpx"
)

type HTTPHandler struct {
	document Document
}

func NewHTTPHandler(document Document) *HTTPHandler {
	return &HTTPHandler{document: document}
}

// AuthenticationDocument handles GET /authentication_document
// @Summary OPDS authentication document
// @Tags auth
// @Produce application/opds-authentication+json
// @Success 200 {object} Document
// @Router /authentication_document [get]
func (h *HTTPHandler) AuthenticationDocument(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, MediaTypeAuthentication, h.document)
}
