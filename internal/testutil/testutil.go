package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/goccy/go-json"
)

// CatalogDocument is a small but complete catalog configuration shared by
// package tests. categories offers a zero-item facet section (collections)
// so filtering of empty facets is exercised.
const CatalogDocument = `{
  "base_query": "mediatype:(texts OR audio)",
  "sections": {
    "categories": {
      "title": "Categories",
      "facets": ["languages", "availability", "collections"],
      "items": {
        "adventure": {"title": "Adventure", "query": "subject:'adventure'", "sort": "downloads desc"},
        "romance": {"title": "Romance", "query": "subject:romance"}
      }
    },
    "languages": {
      "title": "Languages",
      "facets": ["categories", "availability"],
      "items": {
        "english": {"title": "English", "query": "language:(eng OR English)", "sort": ["title asc"]},
        "french": {"title": "French", "query": "language:(fre OR French)"}
      }
    },
    "availability": {
      "title": "Availability",
      "needs_base_query": false,
      "facets": ["languages"],
      "items": {
        "available-now": {"title": "Available now", "query": "lending___available_to_borrow:true", "sort": ["publicdate desc", "title asc"]},
        "open": {"title": "Open access", "query": "NOT access-restricted-item:true"}
      }
    },
    "collections": {
      "title": "Collections",
      "items": {}
    },
    "search": {
      "title": "Search",
      "facets": ["languages", "availability"],
      "items": {
        "user-search": {"title": "Search results"}
      }
    }
  },
  "navigation": {
    "main": {
      "title": "Internet Archive",
      "show_navigation_pages": ["categories-page", "languages-page"],
      "featured_groups": {"section": "categories", "groups": ["adventure", "romance"]}
    },
    "categories-page": {
      "title": "Categories",
      "show_sections": ["categories"]
    },
    "languages-page": {
      "title": "Languages",
      "show_sections": ["languages"],
      "show_navigation_pages": ["categories-page"]
    }
  }
}`

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// ErrorCode extracts error.code from a recorded error envelope.
func (r RecordResponse) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}
