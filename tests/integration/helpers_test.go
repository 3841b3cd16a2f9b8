//go:build integration

package integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"statuscheck/config"
	"statuscheck/internal/app"
)

// backendConfig returns a config pointing at one of the shared containers.
// Each call uses a fresh MongoDB database so tests do not see each other's records.
func backendConfig(t *testing.T, storageType, cacheType string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Logging.Format = config.LogFormatText
	cfg.Storage.Type = storageType
	cfg.Storage.PostgreSQL.URL = pgURL
	cfg.Storage.MongoDB.URL = mongoURL
	cfg.Storage.MongoDB.Database = "statusapi_" + uuid.NewString()[:8]
	cfg.Cache.Type = cacheType
	cfg.Cache.Redis.URL = redisURL
	cfg.Cache.Redis.Key = "statusapi:test:" + uuid.NewString()
	return cfg
}

// startApp runs the status API on a free port and returns its base URL.
func startApp(t *testing.T, cfg *config.Config) string {
	t.Helper()

	port, err := findAvailablePort()
	require.NoError(t, err, "failed to find available port")
	cfg.Server.Port = fmt.Sprint(port)

	application, err := app.New(testCtx, cfg)
	require.NoError(t, err, "failed to create app")

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	go func() {
		_ = application.Start(addr)
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Shutdown(ctx)
	})

	serverURL := "http://" + addr
	require.NoError(t, waitForServer(serverURL+"/health"), "server failed to become healthy")
	return serverURL
}

func findAvailablePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func waitForServer(url string) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not ready", url)
}
