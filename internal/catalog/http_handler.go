package catalog

import (
	"net/http"

	"opdsapi/internal/httpx"
)

type HTTPHandler struct {
	factory    *Factory
	rootNavKey string
}

func NewHTTPHandler(factory *Factory, rootNavKey string) *HTTPHandler {
	return &HTTPHandler{factory: factory, rootNavKey: rootNavKey}
}

// Catalog handles GET /catalog
// @Summary Build an OPDS catalog
// @Description Navigation, browse or search feed composed from the catalog configuration
// @Tags catalog
// @Produce application/opds+json
// @Param type query string false "navigation, browse or search" default(navigation)
// @Param nav_key query string false "Navigation page key"
// @Param section query string false "Section key"
// @Param item query string false "Item key"
// @Param query query string false "Search term"
// @Param page query int false "Page number" default(1)
// @Param facet_section query []string false "Applied facet sections, paired with facet_item"
// @Param facet_item query []string false "Applied facet items, paired with facet_section"
// @Param preferred_client_ip query string false "End user IP forwarded to archive.org"
// @Success 200 {object} Model
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /catalog [get]
func (h *HTTPHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	req.ClientIP = httpx.ClientIP(r)
	h.serve(w, r, req)
}

// Root handles GET /
// @Summary Root navigation feed
// @Tags catalog
// @Produce application/opds+json
// @Success 200 {object} Model
// @Router / [get]
func (h *HTTPHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, Request{
		Type:     TypeNavigation,
		NavKey:   h.rootNavKey,
		Page:     1,
		ClientIP: httpx.ClientIP(r),
	})
}

func (h *HTTPHandler) serve(w http.ResponseWriter, r *http.Request, req Request) {
	model, err := h.factory.Build(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MediaTypeOPDS, model)
}
