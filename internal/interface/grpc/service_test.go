package grpcservice

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func TestConfig(t *testing.T) {
	cfg := Config{Datadir: t.TempDir(), Port: 0, NoTLS: true}
	require.NoError(t, cfg.Validate())

	tlsConfig, err := cfg.tlsConfig()
	require.NoError(t, err)
	require.Nil(t, tlsConfig)

	cfg.NoTLS = false
	err = cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "tls enabled but key.pem and cert.pem not found")
}

func TestRouter(t *testing.T) {
	rest := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := router(grpc.NewServer(), rest)

	t.Run("options", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/info", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rest", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("grpc_content_type_over_http1", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/grpc.health.v1.Health/Check", nil)
		req.Header.Set("Content-Type", "application/grpc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("grpc", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/grpc.health.v1.Health/Check", nil)
		req.ProtoMajor = 2
		req.Header.Set("Content-Type", "application/grpc")
		require.True(t, isGrpcRequest(req))
	})
}

func TestRuntimeMetricName(t *testing.T) {
	require.Equal(t, "raffle_gc_heap_live_bytes", runtimeMetricName("/gc/heap/live:bytes"))
	require.Equal(t, "raffle_sched_goroutines_goroutines", runtimeMetricName("/sched/goroutines:goroutines"))
}
