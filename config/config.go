package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Cache backends selectable via CACHE_BACKEND.
const (
	CacheBackendFile     = "file"
	CacheBackendMemcache = "memcache"
)

// Config represents the application configuration. Source-specific scraping
// configuration (selectors, endpoints, caps) lives in the sources YAML file;
// this struct covers infrastructure only.
type Config struct {
	// Sources configuration file
	SourcesPath string

	// Cache configuration
	CacheBackend string
	CacheFile    string
	MemcacheAddr string

	// Redis stream publishing; disabled when RedisAddr is empty
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Output locations
	OutputDir   string
	SnapshotDir string

	// Inter-request delay bounds
	DelayMin time.Duration
	DelayMax time.Duration

	// Worker configuration
	CrawlInterval time.Duration
	RunOnce       bool

	// Browser automation
	BrowserTimeout time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "5000"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "3600"))
	delayMin, _ := strconv.Atoi(getEnv("DELAY_MIN_MS", "1500"))
	delayMax, _ := strconv.Atoi(getEnv("DELAY_MAX_MS", "4000"))
	browserTimeout, _ := strconv.Atoi(getEnv("BROWSER_TIMEOUT_SECONDS", "90"))

	return Config{
		SourcesPath:          getEnv("SOURCES_PATH", "sources.yaml"),
		CacheBackend:         getEnv("CACHE_BACKEND", CacheBackendFile),
		CacheFile:            getEnv("CACHE_FILE", "data/cache/cache.json"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "coffee_products"),
		RedisStreamMaxLength: streamMaxLen,
		OutputDir:            getEnv("OUTPUT_DIR", "data/processed"),
		SnapshotDir:          getEnv("SNAPSHOT_DIR", "data/raw/snapshots"),
		DelayMin:             time.Duration(delayMin) * time.Millisecond,
		DelayMax:             time.Duration(delayMax) * time.Millisecond,
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		RunOnce:              getEnv("RUN_ONCE", "false") == "true",
		BrowserTimeout:       time.Duration(browserTimeout) * time.Second,
		Environment:          getEnv("COFFEEMARKET_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values that cannot work
func (c Config) Validate() error {
	if c.CacheBackend != CacheBackendFile && c.CacheBackend != CacheBackendMemcache {
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.SourcesPath == "" {
		return fmt.Errorf("sources path must not be empty")
	}
	if c.DelayMax < c.DelayMin {
		return fmt.Errorf("delay max %v is below delay min %v", c.DelayMax, c.DelayMin)
	}
	if c.CrawlInterval <= 0 {
		return fmt.Errorf("crawl interval must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
