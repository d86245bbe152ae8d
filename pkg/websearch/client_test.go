package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.Header.Get("X-Num-Results"))
		assert.Equal(t, "/top%20companies%20logistics", r.URL.EscapedPath())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": [
				{"title": "Acme Corp - Home", "url": "https://acme.com", "description": "Widgets"},
				{"title": "Globex", "url": "https://globex.com", "description": "Stuff"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "top companies logistics", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Acme Corp - Home", results[0].Title)
	assert.Equal(t, "https://acme.com", results[0].URL)
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":[
			{"url":"https://a.com"},{"url":"https://b.com"},{"url":"https://c.com"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":422,"message":"no results"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "gibberish query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q", 10)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSearch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q", 10)
	assert.Error(t, err)
}
