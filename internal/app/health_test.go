package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func serveHealth(t *testing.T, deps map[string]Pinger) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/health", NewHealthChecker(deps).Handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthChecker(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })

	t.Run("all dependencies up", func(t *testing.T) {
		code, body := serveHealth(t, map[string]Pinger{"postgres": ok, "redis": ok})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "pass", body["status"])
		assert.Equal(t, map[string]any{"postgres": "pass", "redis": "pass"}, body["checks"])
	})

	t.Run("one dependency down", func(t *testing.T) {
		down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
		code, body := serveHealth(t, map[string]Pinger{"postgres": ok, "redis": down})

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "fail", body["status"])
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "pass", checks["postgres"])
		assert.Equal(t, "fail: connection refused", checks["redis"])
	})

	t.Run("pings carry a deadline", func(t *testing.T) {
		deadline := pingFunc(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		})
		code, _ := serveHealth(t, map[string]Pinger{"postgres": deadline})

		assert.Equal(t, http.StatusOK, code)
	})
}
