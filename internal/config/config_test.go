package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"ORACLE_PROVIDER", "GEMINI_API_KEY", "GOOGLE_API_KEY", "GROQ_API_KEY", "ORACLE_MODEL",
		"ORACLE_TIMEOUT", "ORACLE_RETRIES", "ORACLE_RPS", "ORACLE_BURST", "ORACLE_CACHE_SIZE",
		"ORACLE_CACHE_TTL", "BUNDLE_STORE", "BUNDLE_DIR", "BUNDLE_DATABASE_URL", "BUNDLE_SQLITE_PATH",
		"BUNDLE_S3_ENDPOINT", "BUNDLE_S3_USE_SSL", "BUNDLE_CACHE_SIZE", "BUNDLE_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Oracle.Provider)
	assert.Equal(t, 60*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 1, cfg.Oracle.Retries)
	assert.False(t, cfg.Oracle.Enhanced())
	assert.Equal(t, "file", cfg.Bundle.Store)
	assert.Equal(t, "out", cfg.Bundle.Dir)
	assert.True(t, cfg.Bundle.S3.UseSSL)
	assert.Zero(t, cfg.Bundle.CacheSize)
	assert.Equal(t, 5*time.Minute, cfg.Bundle.CacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ORACLE_PROVIDER", "Groq")
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("ORACLE_TIMEOUT", "5s")
	t.Setenv("ORACLE_RPS", "2.5")
	t.Setenv("BUNDLE_STORE", "sqlite")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.Oracle.Provider)
	assert.True(t, cfg.Oracle.Enhanced())
	assert.Equal(t, 5*time.Second, cfg.Oracle.Timeout)
	assert.InDelta(t, 2.5, cfg.Oracle.RPS, 1e-9)
	assert.Equal(t, "sqlite", cfg.Bundle.Store)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ORACLE_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("BUNDLE_STORE", "tape")
	_, err = Load()
	assert.Error(t, err)
}

func TestEnhancedRespectsProvider(t *testing.T) {
	o := OracleConfig{Provider: "none", GeminiKey: "k"}
	assert.False(t, o.Enhanced())
	o.Provider = "groq"
	assert.False(t, o.Enhanced())
	o.Provider = "gemini"
	assert.True(t, o.Enhanced())
}
