package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Oracle OracleConfig
	Bundle BundleConfig
}

// OracleConfig selects and tunes the generative backend.
type OracleConfig struct {
	Provider  string // auto|gemini|groq|none
	GeminiKey string
	GroqKey   string
	Model     string
	Timeout   time.Duration
	Retries   int
	RPS       float64
	Burst     int
	CacheSize int
	CacheTTL  time.Duration
}

// Enhanced reports whether any oracle backend is usable. When false every
// stage runs its deterministic fallback.
func (o OracleConfig) Enhanced() bool {
	switch o.Provider {
	case "none":
		return false
	case "gemini":
		return o.GeminiKey != ""
	case "groq":
		return o.GroqKey != ""
	}
	return o.GeminiKey != "" || o.GroqKey != ""
}

type BundleConfig struct {
	Store       string // memory|file|s3|postgres|sqlite
	Dir         string
	DatabaseURL string
	SQLitePath  string
	S3          S3Config
	CacheSize   int // read-through cache entries for remote stores; 0 disables
	CacheTTL    time.Duration
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := durationEnv("ORACLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := durationEnv("ORACLE_CACHE_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	retries, err := intEnv("ORACLE_RETRIES", 1)
	if err != nil {
		return nil, err
	}
	burst, err := intEnv("ORACLE_BURST", 1)
	if err != nil {
		return nil, err
	}
	cacheSize, err := intEnv("ORACLE_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	bundleCache, err := intEnv("BUNDLE_CACHE_SIZE", 0)
	if err != nil {
		return nil, err
	}
	bundleTTL, err := durationEnv("BUNDLE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	rps := 0.0
	if raw := env("ORACLE_RPS"); raw != "" {
		if rps, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("config: ORACLE_RPS: %w", err)
		}
	}

	provider := strings.ToLower(firstNonEmpty(env("ORACLE_PROVIDER"), "auto"))
	switch provider {
	case "auto", "gemini", "groq", "none":
	default:
		return nil, fmt.Errorf("config: unknown ORACLE_PROVIDER %q", provider)
	}
	store := strings.ToLower(firstNonEmpty(env("BUNDLE_STORE"), "file"))
	switch store {
	case "memory", "file", "s3", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("config: unknown BUNDLE_STORE %q", store)
	}

	return &Config{
		Oracle: OracleConfig{
			Provider:  provider,
			GeminiKey: firstNonEmpty(env("GEMINI_API_KEY"), env("GOOGLE_API_KEY")),
			GroqKey:   env("GROQ_API_KEY"),
			Model:     env("ORACLE_MODEL"),
			Timeout:   timeout,
			Retries:   retries,
			RPS:       rps,
			Burst:     burst,
			CacheSize: cacheSize,
			CacheTTL:  ttl,
		},
		Bundle: BundleConfig{
			Store:       store,
			Dir:         firstNonEmpty(env("BUNDLE_DIR"), "out"),
			DatabaseURL: env("BUNDLE_DATABASE_URL"),
			SQLitePath:  firstNonEmpty(env("BUNDLE_SQLITE_PATH"), "crewbuilder.db"),
			S3: S3Config{
				Endpoint:  env("BUNDLE_S3_ENDPOINT"),
				Region:    firstNonEmpty(env("BUNDLE_S3_REGION"), "us-east-1"),
				AccessKey: firstNonEmpty(env("BUNDLE_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
				SecretKey: firstNonEmpty(env("BUNDLE_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
				Bucket:    firstNonEmpty(env("BUNDLE_S3_BUCKET"), "crewbuilder-bundles"),
				UseSSL:    boolEnv("BUNDLE_S3_USE_SSL", true),
			},
			CacheSize: bundleCache,
			CacheTTL:  bundleTTL,
		},
	}, nil
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) bool {
	raw := env(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
