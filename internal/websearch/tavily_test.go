package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "First", "url": "https://a.example/1", "content": "alpha"},
				{"title": "Second", "url": "https://a.example/2", "content": "beta"},
			},
		})
	}))
	defer server.Close()

	tav := NewTavily("test-key", "")
	tav.endpoint = server.URL

	results, err := tav.Search(context.Background(), "golang generics", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "https://a.example/1", results[0].Link)
	assert.Equal(t, "alpha", results[0].Content)

	assert.Equal(t, "golang generics", gotBody["query"])
	assert.Equal(t, "test-key", gotBody["api_key"])
	assert.Equal(t, "basic", gotBody["depth"])
	assert.Equal(t, float64(5), gotBody["max_results"])
}

func TestTavilySearchCapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "a", "url": "u1"},
				{"title": "b", "url": "u2"},
				{"title": "c", "url": "u3"},
			},
		})
	}))
	defer server.Close()

	tav := NewTavily("k", "advanced")
	tav.endpoint = server.URL

	results, err := tav.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestTavilySearchRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"title": "ok", "url": "u"}},
		})
	}))
	defer server.Close()

	tav := NewTavily("k", "")
	tav.endpoint = server.URL

	results, err := tav.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTavilySearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tav := NewTavily("k", "")
	tav.endpoint = server.URL

	_, err := tav.Search(context.Background(), "q", 5)
	assert.Error(t, err)
}

func TestTavilySearchMissingAPIKey(t *testing.T) {
	tav := NewTavily("   ", "")
	_, err := tav.Search(context.Background(), "q", 5)
	assert.Error(t, err)
}
