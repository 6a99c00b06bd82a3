package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/bookflow/internal/config"
	"github.com/aretw0/bookflow/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func build(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := BuildServer(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, srv.Close()) })
	return srv
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var view struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view.SessionID
}

func TestBuildServer_Memory(t *testing.T) {
	srv := build(t, loadConfig(t))

	id := createSession(t, srv.Handler)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, srv.Pool.Len())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `bookflow_step_enters_total{step="area-check"} 1`)
}

func TestBuildServer_MetricsDisabled(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Metrics.Enabled = false
	srv := build(t, cfg)

	assert.Nil(t, srv.Metrics)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildServer_RedisEncrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t)
	cfg.Tenant = "Acme Cleaning"
	cfg.Store.Driver = config.DriverRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Store.EncryptionKey = "correct horse battery staple"
	cfg.Store.PIIMask = []string{"customer_.*"}
	srv := build(t, cfg)

	id := createSession(t, srv.Handler)

	raw, err := mr.Get("bookflow:acme-cleaning:session:" + id)
	require.NoError(t, err)
	assert.True(t, strings.Contains(raw, `"sealed"`), "snapshots are sealed at rest")

	// A fresh replica on the same store resumes the session.
	other := build(t, cfg)
	rr := httptest.NewRecorder()
	other.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestBuildServer_File(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Tenant = "Acme Cleaning"
	cfg.Store.Driver = config.DriverFile
	cfg.Store.Dir = t.TempDir()
	srv := build(t, cfg)

	id := createSession(t, srv.Handler)
	assert.FileExists(t, filepath.Join(cfg.Store.Dir, "acme-cleaning", id+".json"))

	other := build(t, cfg)
	rr := httptest.NewRecorder()
	other.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestBuildServer_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := loadConfig(t)
	cfg.Store.Driver = config.DriverRedis
	cfg.Store.Redis.Addr = addr

	_, err := BuildServer(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "redis unreachable")
}

func TestBuildServer_EmbeddedNATS(t *testing.T) {
	cfg := loadConfig(t)
	cfg.NATS.Embedded = true
	cfg.NATS.DataDir = t.TempDir()
	srv := build(t, cfg)

	assert.NotEmpty(t, createSession(t, srv.Handler))
}

func TestNewRegistry_InvalidPattern(t *testing.T) {
	cfg := loadConfig(t)
	cfg.AreaCheck.PostalPattern = "(["

	_, err := NewRegistry(cfg)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := loadConfig(t)
	cfg.LogLevel = "debug"
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))

	cfg.LogLevel = "loud"
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}
