package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/roster/internal/config"
)

func TestNewAppliesConfiguredTimeouts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Server.Port = "0"
	cfg.Server.ReadTimeout = "3s"

	router := gin.New()
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	srv := New(cfg, router, nil, zerolog.Nop())

	assert.Equal(t, ":0", srv.http.Addr)
	assert.Equal(t, "3s", srv.http.ReadTimeout.String())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.NoError(t, srv.Shutdown(context.Background()))
}
