package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingMiddlewareHeaderReachesClient(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"write": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		},
		"write header": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("ok"))
		},
		"no body": func(w http.ResponseWriter, r *http.Request) {},
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(TimingMiddleware(h))
			defer srv.Close()

			resp, err := http.Get(srv.URL)
			require.NoError(t, err)
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			got := resp.Header.Get("X-Process-Time")
			assert.NotEmpty(t, got)
			assert.True(t, strings.HasSuffix(got, "ms"), got)
		})
	}
}

func TestRouterSetsProcessTime(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/v1/admin/import/parse"} {
		rec := s.do(t, http.MethodGet, path, "", "")
		assert.NotEmpty(t, rec.Result().Header.Get("X-Process-Time"), path)
	}
}
