package httpapp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"polaroida/internal/config"
	"polaroida/internal/lib/jwt"
	"polaroida/internal/lib/logger/handlers/slogdiscard"
	"polaroida/internal/middleware"
	httprouters "polaroida/internal/transport/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectAll struct{}

func (rejectAll) ParseAccess(string) (*jwt.Claims, error) {
	return nil, errors.New("invalid token")
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	log := slogdiscard.NewDiscardLogger()
	routers := httprouters.NewRouter(log, nil, nil, nil, nil, nil, nil)

	s := New(log,
		config.HTTPConfig{Port: "0", Timeout: time.Second, SessionSecret: "test"},
		config.IngestConfig{MaxUploadBytes: 1 << 20, UploadsPerMinute: 10},
		rejectAll{},
		middleware.NewKeyedRateLimiter(10, 10),
		routers,
	)
	s.BuildRouters()

	return s.Handler()
}

func TestServer_PublicRoutes(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/filters", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"polaroid600"`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/filters/compose", strings.NewReader(`{"filter":"unknown","brightness":99}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"filter":"normal"`)
	assert.Contains(t, rec.Body.String(), `"brightness":50`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/photos"},
		{http.MethodPost, "/api/v1/photos"},
		{http.MethodDelete, "/api/v1/photos/0b6f3c1e-2d4a-4c55-9d8e-1f2a3b4c5d6e"},
		{http.MethodGet, "/api/v1/albums"},
		{http.MethodPatch, "/api/v1/profile/theme"},
		{http.MethodGet, "/api/v1/profile/stream"},
		{http.MethodGet, "/api/v1/export/journal.pdf"},
		{http.MethodPost, "/api/v1/logout"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			req.Header.Set("Authorization", "Bearer forged")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
