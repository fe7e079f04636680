package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, 5<<20, cfg.Storage.QuotaBytes)
	assert.Equal(t, "#4CAF50", cfg.DefaultColor)
	assert.Equal(t, 90, cfg.Import.HorizonDays)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
listen: ":9000"
timezone: Asia/Seoul
storage:
  backend: redis
  redis_addr: cache:6379
  key: cal
backup:
  cron: "0 3 * * *"
basic_auth:
  username: admin
  password: secret
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "cal", cfg.Storage.Key)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Cron)
	assert.Equal(t, 14, cfg.Backup.Keep)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestNormalize_UnknownBackendFallsBackToFile(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: "floppy"}}
	cfg.Normalize()
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DESKCAL_REDIS_ADDR=from-file:6379\nDESKCAL_LISTEN=:7000\n"), 0o600))

	// Process environment wins over the .env file.
	t.Setenv("DESKCAL_LISTEN", ":8181")
	t.Setenv("DESKCAL_STORAGE_BACKEND", "sqlite")
	t.Setenv("DESKCAL_REDIS_DB", "3")
	t.Setenv("DESKCAL_QUOTA_BYTES", "lots")
	t.Setenv("DESKCAL_BASIC_AUTH_USERNAME", "u")
	t.Setenv("DESKCAL_BASIC_AUTH_PASSWORD", "p")
	t.Cleanup(func() { os.Unsetenv("DESKCAL_REDIS_ADDR") })

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(envFile))

	assert.Equal(t, ":8181", cfg.Listen)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "from-file:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 3, cfg.Storage.RedisDB)
	assert.Equal(t, 5<<20, cfg.Storage.QuotaBytes)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "p", cfg.BasicAuth.Password)
}

func TestApplyEnv_MissingEnvFileIsFine(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, (&Config{Timezone: "Local"}).Location())
	assert.Equal(t, time.Local, (&Config{Timezone: "Mars/Olympus"}).Location())

	loc := (&Config{Timezone: "UTC"}).Location()
	assert.Equal(t, "UTC", loc.String())
}

func TestNormalize_Quota(t *testing.T) {
	c := &Config{}
	c.Normalize()
	assert.Equal(t, 5<<20, c.Storage.QuotaBytes)

	c.Storage.QuotaBytes = -1
	c.Normalize()
	assert.Equal(t, -1, c.Storage.QuotaBytes, "negative disables the cap and must survive normalization")
}
