package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/roster/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Storage.Driver = config.StorageDriverLocal
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Storage.PublicBaseURL = ""
	return cfg
}

func TestRouterServesHealthCoursesAndUploads(t *testing.T) {
	cfg := testConfig(t)
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	deps, err := BuildDependencies(cfg, mock, zerolog.Nop())
	require.NoError(t, err)
	router := SetupRouter(cfg, deps, zerolog.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	now := time.Now()
	mock.ExpectQuery(`FROM courses ORDER BY name ASC`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "description", "created_at", "updated_at"}).
			AddRow(int64(1), "CBSE9-SCI", "CBSE 9 Science", (*string)(nil), now, now))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CBSE9-SCI")
	assert.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.LocalPath, "photo.png"), []byte("png"), 0o600))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/photo.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLocalStorageDefaultsPublicURLToServerPort(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = "4000"

	store, dir, err := SetupStorage(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.LocalPath, dir)
	assert.Equal(t, "http://localhost:4000/uploads/a.png", store.PublicURL("a.png"))
}
