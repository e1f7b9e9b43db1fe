package newsapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_FetchArticles_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "news-key", r.Header.Get("X-Api-Key"))
		q := r.URL.Query()
		assert.Contains(t, q.Get("q"), "San Francisco")
		assert.Contains(t, q.Get("q"), "traffic")
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.NotEmpty(t, q.Get("from"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"totalResults": 1,
			"articles": [{
				"title": "Concert Saturday",
				"description": "A concert happens in San Francisco this Saturday.",
				"url": "https://example.com/concert",
				"publishedAt": "2026-08-27T12:00:00Z",
				"source": {"name": "Example News"}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("news-key", 5*time.Second, discardLogger())
	c.baseURL = srv.URL

	articles, err := c.FetchArticles(context.Background(), "San Francisco", 7)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Concert Saturday", articles[0].Title)
	assert.Equal(t, "Example News", articles[0].SourceName)
	assert.Equal(t, "https://example.com/concert", articles[0].URL)
	assert.Equal(t, time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC), articles[0].PublishedAt)
}

func TestClient_FetchArticles_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":"error","code":"apiKeyInvalid"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", 5*time.Second, discardLogger())
	c.baseURL = srv.URL

	_, err := c.FetchArticles(context.Background(), "San Francisco", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGenerateMockArticles(t *testing.T) {
	articles := GenerateMockArticles("Oakland", 7)
	require.Len(t, articles, 7)

	for _, a := range articles {
		assert.NotEmpty(t, a.Title)
		assert.Contains(t, a.Description, "Oakland")
		assert.Equal(t, "Mock News", a.SourceName)
	}

	// Cycling through the five templates wraps around.
	assert.Equal(t, articles[0].Title, articles[5].Title)
}

func TestMockSource_FetchArticles(t *testing.T) {
	src := &MockSource{Count: 3, Logger: discardLogger()}
	articles, err := src.FetchArticles(context.Background(), "Berkeley", 99)
	require.NoError(t, err)
	assert.Len(t, articles, 3)

	src = &MockSource{}
	articles, err = src.FetchArticles(context.Background(), "Berkeley", 0)
	require.NoError(t, err)
	assert.Len(t, articles, 10, "default count")
}
