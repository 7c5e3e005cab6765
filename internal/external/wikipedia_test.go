package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodagoat/wodagoat-data/internal/cache"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, c *cache.Cache) *WikipediaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWikipediaClient(WikipediaOptions{
		BaseURL:           srv.URL,
		RequestsPerMinute: 60000,
		Cache:             c,
		CacheTTL:          time.Minute,
	})
}

func TestFetchSummaryFound(t *testing.T) {
	var gotPath, gotAgent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"type": "standard",
			"title": "Lionel Messi",
			"extract": "Lionel Andrés Messi is an Argentine professional footballer.",
			"thumbnail": {"source": "https://upload.wikimedia.org/messi.jpg"},
			"originalimage": {"source": "https://upload.wikimedia.org/messi-full.jpg"}
		}`))
	}, nil)

	s, err := client.FetchSummary(context.Background(), "Lionel Messi")
	require.NoError(t, err)
	assert.Equal(t, "/page/summary/Lionel_Messi", gotPath)
	assert.Equal(t, wikipediaUserAgent, gotAgent)
	assert.Equal(t, "Lionel Messi", s.Title)
	assert.Equal(t, "Lionel Andrés Messi is an Argentine professional footballer.", s.Extract)
	assert.Equal(t, "https://upload.wikimedia.org/messi.jpg", s.ImageURL)
	assert.Equal(t, WikipediaSource, client.Source())
}

func TestFetchSummaryFallsBackToOriginalImageAndHTML(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"title": "Pelé",
			"extract": "",
			"extract_html": "<p><b>Edson Arantes do Nascimento</b> was a <i>Brazilian</i>\n professional footballer.</p>",
			"originalimage": {"source": "https://upload.wikimedia.org/pele.jpg"}
		}`))
	}, nil)

	s, err := client.FetchSummary(context.Background(), "Pelé")
	require.NoError(t, err)
	assert.Equal(t, "Edson Arantes do Nascimento was a Brazilian professional footballer.", s.Extract)
	assert.Equal(t, "https://upload.wikimedia.org/pele.jpg", s.ImageURL)
}

func TestFetchSummaryNotFoundIsCached(t *testing.T) {
	c := cache.New(true)
	defer c.Close()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}, c)

	for i := 0; i < 3; i++ {
		_, err := client.FetchSummary(context.Background(), "Nobody Known")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchSummaryFoundIsCached(t *testing.T) {
	c := cache.New(true)
	defer c.Close()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"title": "Kaká", "extract": "Kaká is a Brazilian former footballer."}`))
	}, c)

	first, err := client.FetchSummary(context.Background(), "Kaká")
	require.NoError(t, err)
	second, err := client.FetchSummary(context.Background(), "kaká")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchSummaryServerErrorIsNotCached(t *testing.T) {
	c := cache.New(true)
	defer c.Close()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}, c)

	for i := 0; i < 2; i++ {
		_, err := client.FetchSummary(context.Background(), "Someone")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchSummaryMalformedAndEmpty(t *testing.T) {
	tests := map[string]string{
		"malformed json": `{"title": `,
		"no extract":     `{"title": "Empty", "extract": "  "}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}, nil)
			_, err := client.FetchSummary(context.Background(), "Someone")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFetchSummaryTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewWikipediaClient(WikipediaOptions{
		BaseURL:           srv.URL,
		Timeout:           50 * time.Millisecond,
		RequestsPerMinute: 60000,
	})

	start := time.Now()
	_, err := client.FetchSummary(context.Background(), "Slow Player")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchSummaryBlankName(t *testing.T) {
	client := NewWikipediaClient(WikipediaOptions{BaseURL: "http://127.0.0.1:1"})
	_, err := client.FetchSummary(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTitlePath(t *testing.T) {
	assert.Equal(t, "Lionel_Messi", titlePath("Lionel Messi"))
	assert.Equal(t, "AC%2FDC", titlePath("AC/DC"))
	assert.Equal(t, "Pel%C3%A9", titlePath("Pelé"))
}
