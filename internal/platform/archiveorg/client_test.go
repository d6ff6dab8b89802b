package archiveorg

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:           srv.URL,
		UserAgent:         "opdsapi-test",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewClient(cfg)
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/advancedsearch.php", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "(subject:whales)", q.Get("q"))
		assert.Equal(t, []string{"identifier"}, q["fl[]"])
		assert.Equal(t, []string{"downloads desc", "title asc"}, q["sort[]"])
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "25", q.Get("rows"))
		assert.Equal(t, "json", q.Get("output"))
		assert.Equal(t, "10.0.0.1", q.Get("preferred_client_ip"))
		assert.Equal(t, "opdsapi-test", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"numFound":57,"start":25,"docs":[{"identifier":"a"},{"identifier":"b"}]}}`))
	})

	res, err := c.Search(context.Background(), SearchParams{
		Query:    "(subject:whales)",
		Sort:     []string{"downloads desc", "title asc"},
		Page:     2,
		Rows:     25,
		ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, 57, res.Response.NumFound)
	require.Len(t, res.Response.Docs, 2)
	assert.Equal(t, "a", res.Response.Docs[0].Identifier)
}

func TestSearch_SendsS3Credentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "LOW key:secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"response":{"numFound":0,"docs":[]}}`))
	}, func(cfg *Config) {
		cfg.S3Access = "key"
		cfg.S3Secret = "secret"
	})

	_, err := c.Search(context.Background(), SearchParams{Query: "x", Page: 1, Rows: 1})
	require.NoError(t, err)
}

func TestSearch_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.Search(context.Background(), SearchParams{Query: "x", Page: 1, Rows: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode search response")
}

func TestMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata/moby-dick", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"metadata": {"identifier": "moby-dick", "title": "Moby Dick", "creator": ["Melville, Herman"]},
			"files": [{"name": "moby.pdf", "format": "Text PDF"}]
		}`))
	})

	item, err := c.Metadata(context.Background(), "moby-dick", "")
	require.NoError(t, err)
	assert.Equal(t, "Moby Dick", item.Metadata["title"])
	require.Len(t, item.Files, 1)
	assert.Equal(t, "Text PDF", item.Files[0].Format)
}

func TestMetadata_EmptyObjectIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Metadata(context.Background(), "nope", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":{"numFound":1,"docs":[{"identifier":"a"}]}}`))
	}, func(cfg *Config) { cfg.MaxRetries = 1 })

	res, err := c.Search(context.Background(), SearchParams{Query: "x", Page: 1, Rows: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Response.NumFound)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, func(cfg *Config) { cfg.MaxRetries = 2 })

	_, err := c.Search(context.Background(), SearchParams{Query: "x", Page: 1, Rows: 1})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *Config) {
		cfg.BreakerFailures = 2
		cfg.BreakerTimeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := c.Search(context.Background(), SearchParams{Query: "x", Page: 1, Rows: 1})
		require.Error(t, err)
	}

	_, err := c.Search(context.Background(), SearchParams{Query: "x", Page: 1, Rows: 1})
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())

	// The metadata breaker is independent.
	_, err = c.Metadata(context.Background(), "a", "")
	assert.False(t, errors.Is(err, ErrCircuitOpen))
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, func(cfg *Config) { cfg.BreakerFailures = 1 })

	for i := 0; i < 3; i++ {
		_, err := c.Metadata(context.Background(), "gone", "")
		assert.True(t, errors.Is(err, ErrNotFound))
	}
}

func TestDownloadURL(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://archive.org/"})
	assert.Equal(t,
		"https://archive.org/download/moby-dick/sub%20dir/Moby%20Dick.pdf",
		c.DownloadURL("moby-dick", "sub dir/Moby Dick.pdf"))
}
