package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr           string
	APIToken           string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
	UpstreamTimeout    time.Duration
	UpstreamRate       float64
	UpstreamBurst      int
	GroupConcurrency   int
	DebugDumpDir       string
	DebugDumpRetention int
	DebugDumpAll       bool
	ModuleConfigPath   string
}

func Load() Config {
	return Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":8090"),
		APIToken:           getenv("API_TOKEN", ""),
		RedisAddr:          getenv("REDIS_ADDR", ""),
		RedisPassword:      getenv("REDIS_PASSWORD", ""),
		RedisDB:            getenvInt("REDIS_DB", 0),
		CacheTTL:           getenvDuration("CACHE_TTL", 30*time.Second),
		CacheSweepInterval: getenvDuration("CACHE_SWEEP_INTERVAL", 30*time.Second),
		UpstreamTimeout:    getenvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		UpstreamRate:       getenvFloat("UPSTREAM_RATE", 10),
		UpstreamBurst:      getenvInt("UPSTREAM_BURST", 10),
		GroupConcurrency:   getenvInt("GROUP_CONCURRENCY", 4),
		DebugDumpDir:       getenv("DEBUG_DUMP_DIR", "debug_dumps"),
		DebugDumpRetention: getenvInt("DEBUG_DUMP_RETENTION", 10),
		DebugDumpAll:       getenvBool("DEBUG_DUMP_ALL", false),
		ModuleConfigPath:   getenv("MODULE_CONFIG", ""),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
