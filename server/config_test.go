package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir string, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "react-nice-avatar", cfg.PackageName)
	assert.Equal(t, "App/index.tsx", cfg.HotReloadTarget())
}

func TestLoadConfigFiles(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "avatard.config.json", `{"port": 3000, "logLevel": "warn", "stripHotReload": false}`)

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Empty(t, cfg.HotReloadTarget())
		assert.Equal(t, "react-nice-avatar", cfg.PackageName)
	})

	t.Run("yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "avatard.config.yaml", "port: 4000\nsassBin: /opt/sass\nhotReloadFile: App/Root.tsx\n")

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 4000, cfg.Port)
		assert.Equal(t, "/opt/sass", cfg.SassBin)
		assert.Equal(t, "App/Root.tsx", cfg.HotReloadTarget())
	})

	t.Run("json wins over yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "avatard.config.json", `{"port": 3000}`)
		writeFile(t, dir, "avatard.config.yaml", "port: 4000\n")

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Port)
	})

	t.Run("invalid", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "avatard.config.yaml", "port: [")

		_, err := LoadConfig(dir)
		assert.ErrorContains(t, err, "invalid config file")
	})
}

func TestLoadConfigEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "avatard.config.json", `{"port": 3000, "tailwindBin": "/from/file"}`)
	t.Setenv("PORT", "9090")
	t.Setenv("TAILWIND_BIN", "/from/env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/from/env", cfg.TailwindBin)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		os.Unsetenv("AVATARD_LOG_DIR")
		os.Unsetenv("AVATARD_PACKAGE_NAME")
	})
	// set in the environment already, so .env must not override it
	t.Setenv("AVATARD_LOG_LEVEL", "error")
	writeFile(t, dir, ".env", "AVATARD_LOG_DIR=/tmp/avatard-logs\nAVATARD_PACKAGE_NAME=my-avatar\nAVATARD_LOG_LEVEL=debug\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/avatard-logs", cfg.LogDir)
	assert.Equal(t, "my-avatar", cfg.PackageName)
	assert.Equal(t, "error", cfg.LogLevel)
}
