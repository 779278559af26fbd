package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "ceo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "dashboard:\n  ws_url: ws://runtime:9000/ws\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://runtime:9000/ws", cfg.Dashboard.WSURL)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Dashboard.HTTPURL)
	assert.Equal(t, 2*time.Second, cfg.Dashboard.ReconnectDelay())
	assert.Equal(t, 50, cfg.Inbox.Capacity)
	assert.Equal(t, 2*time.Second, cfg.Inbox.BurstWindow())
	assert.Equal(t, int64(150000), cfg.Usage.HighThreshold)
	assert.Equal(t, "agree", cfg.Autonomy.ConfirmPhrase)
	assert.Equal(t, 500, cfg.Storage.OutboxMax)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CEO_DASHBOARD_TOKEN", "tok")
	t.Setenv("CEO_WS_URL", "ws://env/ws")
	t.Setenv("CEO_API_LISTEN", ":9999")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Dashboard.Token)
	assert.Equal(t, "ws://env/ws", cfg.Dashboard.WSURL)
	assert.Equal(t, ":9999", cfg.API.Listen)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, t.TempDir(), "inbox: [not, a, map\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "inbox:\n  capacity: 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	go Watch(ctx, path, func(cfg *Config) { got <- cfg })

	// give the watcher time to register before editing
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "inbox:\n  capacity: 20\n")

	select {
	case cfg := <-got:
		assert.Equal(t, 20, cfg.Inbox.Capacity)
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
