package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(_ context.Context) error { return s.err }

func probe(t *testing.T, h *Handler, handle func(echo.Context) error) (int, map[string]string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handle(e.NewContext(req, rec)))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestLive(t *testing.T) {
	h := NewHandler(stubPinger{})

	code, body := probe(t, h, h.Live)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestReady_DatabaseUp(t *testing.T) {
	h := NewHandler(stubPinger{})

	code, body := probe(t, h, h.Ready)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestReady_DatabaseDownDegradesGracefully(t *testing.T) {
	h := NewHandler(stubPinger{err: errors.New("connection refused")})

	code, body := probe(t, h, h.Ready)

	// Readiness degrades in the body, it never hard-fails.
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["database"], "connection refused")
}
