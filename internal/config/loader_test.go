package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Webhook.Port)
	assert.Equal(t, "http://shareimage.42web.io", cfg.Host.BaseURL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snaplink.json")

	content := `{
		"telegram": {"bot_token": "123456789:AAFakeTokenForLoaderTest123456789"},
		"host": {"base_url": "http://localhost/my_shop", "upload_timeout": 10},
		"webhook": {"port": 8080},
		"data_dir": "` + filepath.ToSlash(dir) + `"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123456789:AAFakeTokenForLoaderTest123456789", cfg.Telegram.BotToken)
	assert.Equal(t, "http://localhost/my_shop", cfg.Host.BaseURL)
	assert.Equal(t, 10, cfg.Host.UploadTimeout)
	assert.Equal(t, 8080, cfg.Webhook.Port)

	// Unset values keep their defaults
	assert.Equal(t, 100, cfg.Webhook.RateLimitPerMinute)
}

func TestLoad_DerivesPathsFromDataDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snaplink.json")

	content := `{"data_dir": "` + filepath.ToSlash(dir) + `"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sessions.db"), cfg.Storage.DBPath)
	assert.Equal(t, filepath.Join(dir, "uploads"), cfg.Host.UploadDir)
	assert.Equal(t, filepath.Join(dir, "snaplink.log"), cfg.Logging.File)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaplink.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snaplink.json")

	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "123456789:AAFakeTokenForSaveTest12345678901"
	cfg.Host.BaseURL = "http://localhost/my_shop"
	cfg.DataDir = dir

	loader := NewLoader(path)
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, cfg.Telegram.BotToken, loaded.Telegram.BotToken)
	assert.Equal(t, cfg.Host.BaseURL, loaded.Host.BaseURL)
}

func TestGetConfigPath(t *testing.T) {
	loader := NewLoader("/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", loader.GetConfigPath())

	assert.Contains(t, NewLoader("").GetConfigPath(), ".snaplink")
}
