package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative-router/server/internal/core"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, core.Development, cfg.Env())
	assert.Equal(t, "gemini", cfg.Classifier.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Handler.Model)
	assert.Equal(t, "contains", cfg.Router.MatchMode)
	assert.Equal(t, 3, cfg.Retrieval.K)
	assert.Equal(t, "sqlite", cfg.Retrieval.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.GinMode())

	ttl, err := cfg.ConversationTTL()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, ttl)
}

func TestLoadPrefixedModelSettings(t *testing.T) {
	t.Setenv("CLASSIFIER_PROVIDER", "openai")
	t.Setenv("CLASSIFIER_MODEL", "gpt-4o-mini")
	t.Setenv("HANDLER_TEMPERATURE", "0.9")
	t.Setenv("MAX_TOKENS", "512")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Classifier.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Classifier.Model)
	assert.Equal(t, "gemini", cfg.Handler.Provider)
	assert.InDelta(t, 0.9, cfg.Handler.Temperature, 1e-6)
	assert.Equal(t, 512, cfg.Classifier.MaxTokens)
	assert.Equal(t, 512, cfg.Handler.MaxTokens)
}

func TestLoadUnprefixedKeys(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, core.Production, cfg.Env())
	assert.Equal(t, "release", cfg.GinMode())
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, "g-key", cfg.Credentials.GeminiAPIKey)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROUTER_MATCH_MODE=keyword\nRETRIEVAL_K=5\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ROUTER_MATCH_MODE")
		os.Unsetenv("RETRIEVAL_K")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "keyword", cfg.Router.MatchMode)
	assert.Equal(t, 5, cfg.Retrieval.K)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"CLASSIFIER_PROVIDER":  "anthropic",
		"ROUTER_MATCH_MODE":    "fuzzy",
		"DOCSTORE_BACKEND":     "chroma",
		"CONVERSATION_BACKEND": "memory",
		"CONVERSATION_TTL":     "soon",
		"HTTP_PORT":            "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "three")
	_, err := Load(missingEnvFile(t))
	assert.Error(t, err)
}
