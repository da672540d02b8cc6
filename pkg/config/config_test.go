package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, ".tradedesk", cfg.DataDir)
	require.True(t, cfg.Paper.Enabled)
	require.NotEmpty(t, cfg.Paper.Symbols)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().Web.Addr, cfg.Web.Addr)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradedesk.yaml")
	content := []byte("log_level: debug\npaper:\n  enabled: false\n  symbols: [SOLUSDT]\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.False(t, cfg.Paper.Enabled)
	require.Equal(t, []string{"SOLUSDT"}, cfg.Paper.Symbols)
	// Untouched sections keep their defaults.
	require.Equal(t, Default().Web.Addr, cfg.Web.Addr)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestProxyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:7890")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:7890", cfg.Binance.Proxy)
}
