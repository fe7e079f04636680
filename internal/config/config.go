package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	appLog "deskcal/internal/log"
)

// Storage backends accepted in StorageConfig.Backend.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// StorageConfig selects where the event blob lives.
type StorageConfig struct {
	// Backend is one of file, memory, redis, sqlite.
	Backend string `yaml:"backend" json:"backend"`
	// Path is the JSON file used by the file backend.
	Path string `yaml:"path" json:"path"`
	// Key names the blob in redis and sqlite.
	Key string `yaml:"key" json:"key"`
	// QuotaBytes caps the serialized collection. 0 means the 5 MiB
	// default; a negative value disables the cap.
	QuotaBytes int `yaml:"quota_bytes" json:"quota_bytes"`

	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password,omitempty" json:"-"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`

	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// BackupConfig controls the periodic copy of the event blob.
type BackupConfig struct {
	// Cron is a 5-field cron spec. Empty disables backups.
	Cron string `yaml:"cron" json:"cron"`
	Dir  string `yaml:"dir" json:"dir"`
	// Keep is how many backup files survive pruning.
	Keep int `yaml:"keep" json:"keep"`
}

// SnapshotConfig controls headless captures of the /calendar page.
type SnapshotConfig struct {
	// Cron is a 5-field cron spec. Empty disables scheduled snapshots.
	Cron   string `yaml:"cron" json:"cron"`
	Path   string `yaml:"path" json:"path"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// ImportConfig controls ICS imports.
type ImportConfig struct {
	// HorizonDays bounds recurrence expansion, counted from today.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
	// CacheDir holds conditional-GET metadata for URL imports.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone in which event dates and times are
	// interpreted (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// DefaultColor is given to events saved without a color.
	DefaultColor string `yaml:"default_color" json:"default_color"`

	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Backup   BackupConfig   `yaml:"backup" json:"backup"`
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
	Import   ImportConfig   `yaml:"import" json:"import"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultColor == "" {
		c.DefaultColor = "#4CAF50"
	}

	switch c.Storage.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendSQLite:
	default:
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./data/events.json"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = "calendar_events"
	}
	if c.Storage.QuotaBytes == 0 {
		c.Storage.QuotaBytes = 5 << 20
	}
	if c.Storage.RedisAddr == "" {
		c.Storage.RedisAddr = "127.0.0.1:6379"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "./data/deskcal.db"
	}

	if c.Backup.Dir == "" {
		c.Backup.Dir = "./data/backups"
	}
	if c.Backup.Keep <= 0 {
		c.Backup.Keep = 14
	}

	if c.Snapshot.Path == "" {
		c.Snapshot.Path = "./data/preview.png"
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = 1280
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = 900
	}

	if c.Import.HorizonDays <= 0 {
		c.Import.HorizonDays = 90
	}
	if c.Import.CacheDir == "" {
		c.Import.CacheDir = "./data/ics-cache"
	}
}

// Location resolves Timezone, falling back to time.Local when it is
// empty, "Local", or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// ApplyEnv reads envFile (if it exists) into the process environment and
// then overrides config values from DESKCAL_* variables. Variables already
// set in the environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	setString(&c.Listen, "DESKCAL_LISTEN")
	setString(&c.Timezone, "DESKCAL_TIMEZONE")
	setString(&c.LogLevel, "DESKCAL_LOG_LEVEL")
	setString(&c.DefaultColor, "DESKCAL_DEFAULT_COLOR")
	setString(&c.Storage.Backend, "DESKCAL_STORAGE_BACKEND")
	setString(&c.Storage.Path, "DESKCAL_STORAGE_PATH")
	setString(&c.Storage.Key, "DESKCAL_STORAGE_KEY")
	setString(&c.Storage.RedisAddr, "DESKCAL_REDIS_ADDR")
	setString(&c.Storage.RedisPassword, "DESKCAL_REDIS_PASSWORD")
	setInt(&c.Storage.RedisDB, "DESKCAL_REDIS_DB")
	setString(&c.Storage.SQLitePath, "DESKCAL_SQLITE_PATH")
	setInt(&c.Storage.QuotaBytes, "DESKCAL_QUOTA_BYTES")

	user := envValue("DESKCAL_BASIC_AUTH_USERNAME")
	pass := envValue("DESKCAL_BASIC_AUTH_PASSWORD")
	if user != "" && pass != "" {
		c.BasicAuth = &BasicAuthConfig{Username: user, Password: pass}
	}

	c.Normalize()
	return nil
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := envValue(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := envValue(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		appLog.Warn("ignoring non-numeric environment override", "key", key, "value", v)
		return
	}
	*dst = n
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".deskcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
