package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/handlers/slogdiscard"
	"polaroida/internal/middleware"
	httprouters "polaroida/internal/transport/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStream struct {
	change models.ProfileChange
}

func (s stubStream) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan models.ProfileChange, error) {
	ch := make(chan models.ProfileChange, 1)
	c := s.change
	c.UserID = userID
	ch <- c
	return ch, nil
}

func newStreamServer(t *testing.T, allowed []string) string {
	t.Helper()

	principal := middleware.Principal{UserID: uuid.New(), Email: "a@b.c"}
	stream := stubStream{change: models.ProfileChange{Field: "theme", Effective: "dark", State: models.UpdateConfirmed}}

	routers := httprouters.NewRouter(slogdiscard.NewDiscardLogger(), nil, nil, nil, nil, stream, nil,
		httprouters.WithAllowedOrigins(allowed),
	)

	e := echo.New()
	e.GET("/stream", routers.StreamProfile, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetPrincipal(c, principal)
			return next(c)
		}
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func dialStream(t *testing.T, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, resp, err := dialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	if resp != nil && resp.Body != nil {
		t.Cleanup(func() { _ = resp.Body.Close() })
	}
	return conn, resp, err
}

func TestStreamProfile_Origin(t *testing.T) {
	allowed := []string{"https://app.polaroida.example/"}

	t.Run("foreign origin is rejected", func(t *testing.T) {
		url := newStreamServer(t, allowed)

		conn, resp, err := dialStream(t, url, "https://evil.example")
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Nil(t, conn)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("no allow list rejects cross origin", func(t *testing.T) {
		url := newStreamServer(t, nil)

		_, resp, err := dialStream(t, url, "https://app.polaroida.example")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	accepted := []struct {
		name   string
		origin func(url string) string
	}{
		{"allow listed origin", func(string) string { return "https://APP.polaroida.example" }},
		{"no origin header", func(string) string { return "" }},
		{"same host", func(url string) string {
			return "http://" + strings.TrimSuffix(strings.TrimPrefix(url, "ws://"), "/stream")
		}},
	}

	for _, tc := range accepted {
		t.Run(tc.name, func(t *testing.T) {
			url := newStreamServer(t, allowed)

			conn, _, err := dialStream(t, url, tc.origin(url))
			require.NoError(t, err)

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			var change models.ProfileChange
			require.NoError(t, conn.ReadJSON(&change))
			assert.Equal(t, "theme", change.Field)
			assert.Equal(t, "dark", change.Effective)
		})
	}
}
