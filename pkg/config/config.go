package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Cart  CartConfig  `yaml:"cart"`
	Redis RedisConfig `yaml:"redis"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type CartConfig struct {
	// Backend is one of memory, file, sqlite, redis.
	Backend    string `yaml:"backend"`
	Key        string `yaml:"key"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
	// RejectUntilReady fails mutations issued before hydration instead of queueing them.
	RejectUntilReady bool `yaml:"reject_until_ready"`
}

type RedisConfig struct {
	Addr        string `yaml:"addr"`
	MaxAttempts int    `yaml:"max_attempts"`
}

func Load() Config {
	dataDir := defaultDataDir()
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
		Cart: CartConfig{
			Backend:          getEnv("CART_BACKEND", "file"),
			Key:              getEnv("CART_KEY", "@GoMarketPlace:cart"),
			Dir:              getEnv("CART_DIR", dataDir),
			SQLitePath:       getEnv("CART_SQLITE_PATH", filepath.Join(dataDir, "cart.db")),
			RejectUntilReady: getEnvBool("CART_REJECT_UNTIL_READY", false),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			MaxAttempts: getEnvInt("REDIS_MAX_ATTEMPTS", 5),
		},
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// LoadFile starts from Load and overlays the fields present in the YAML file
// at path. An empty path is the same as Load.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cartstore")
	}
	return ".cartstore"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
