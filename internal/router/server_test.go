package router

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/router/document"
)

func TestServerRoutes(t *testing.T) {
	conf := config.Default()
	conf.Server.Cors = true
	server, err := NewServer(context.Background(), conf)
	require.NoError(t, err)
	defer server.Shutdown()

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vdb_collection_count")

	req := httptest.NewRequest(http.MethodGet, "/v1/version", nil)
	req.Header.Set("Authorization", document.AuthEncrypt(conf.Global.User, conf.Global.Password))
	req.Header.Set("Origin", "http://client.test")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerServeAndShutdown(t *testing.T) {
	conf := config.Default()
	conf.Global.Data = t.TempDir()
	conf.Server.Storage = config.StorageSQLite
	require.NoError(t, conf.Validate())

	server, err := NewServer(context.Background(), conf)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- server.Serve(l) }()

	req, err := http.NewRequest(http.MethodGet, "http://"+l.Addr().String()+"/v1/health", nil)
	require.NoError(t, err)
	req.SetBasicAuth(conf.Global.User, conf.Global.Password)
	require.Eventually(t, func() bool {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	server.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.NotEmpty(t, server.Engine().Health())
}

func TestNewServerRejectsUnknownStorage(t *testing.T) {
	conf := config.Default()
	conf.Server.Storage = "etcd"
	_, err := NewServer(context.Background(), conf)
	assert.Error(t, err)
}
