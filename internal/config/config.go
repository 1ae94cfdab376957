package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/chative-router/server/internal/core"
	"github.com/chative-router/server/internal/pipeline/chatmodels"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/router"
	logx "github.com/chative-router/server/pkg/logger"
	pkgpostgres "github.com/chative-router/server/pkg/postgres"
	pkgredis "github.com/chative-router/server/pkg/redis"
)

// Backends accepted for the stores.
const (
	BackendSqlite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	Port int    `envconfig:"HTTP_PORT" default:"8080"`
	Mode string `envconfig:"HTTP_MODE"`
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64 `envconfig:"HTTP_RATE_LIMIT" default:"5"`
	RateBurst int     `envconfig:"HTTP_RATE_BURST" default:"10"`
}

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// LLM providers
	Credentials model.Credentials
	Classifier  model.ChatModelConfig
	Handler     model.ChatModelConfig

	// Pipeline
	Router       model.RouterConfig
	Retrieval    model.RetrievalConfig
	Conversation model.ConversationConfig
	Agent        model.AgentConfig

	HTTP HTTPConfig
}

// Env returns the parsed deployment environment.
func (c *AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// ConversationTTL parses CONVERSATION_TTL.
func (c *AppConfig) ConversationTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Conversation.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", c.Conversation.TTL, err)
	}
	return ttl, nil
}

// GinMode returns HTTP_MODE or the mode implied by the environment.
func (c *AppConfig) GinMode() string {
	if c.HTTP.Mode != "" {
		return c.HTTP.Mode
	}
	return c.Env().GinMode()
}

// Load reads .env files (missing files only warn) and binds the environment.
// Model settings are read with the CLASSIFIER_ and HANDLER_ prefixes, so
// CLASSIFIER_MODEL overrides MODEL for the classifier only.
func Load(files ...string) (*AppConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			logx.Warn().Err(err).Str("file", f).Msg("could not load env file")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would only fail later at wiring time.
func (c *AppConfig) Validate() error {
	for role, m := range map[string]model.ChatModelConfig{"CLASSIFIER": c.Classifier, "HANDLER": c.Handler} {
		switch strings.ToLower(m.Provider) {
		case chatmodels.ProviderGemini, chatmodels.ProviderOpenAI:
		default:
			return fmt.Errorf("unsupported %s_PROVIDER %q", role, m.Provider)
		}
	}

	switch strings.ToLower(c.Router.MatchMode) {
	case router.MatchContains, router.MatchKeyword, router.MatchExact:
	default:
		return fmt.Errorf("unsupported ROUTER_MATCH_MODE %q", c.Router.MatchMode)
	}

	switch c.Retrieval.Backend {
	case BackendSqlite, BackendRedis:
	default:
		return fmt.Errorf("unsupported DOCSTORE_BACKEND %q", c.Retrieval.Backend)
	}

	switch c.Conversation.Backend {
	case BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unsupported CONVERSATION_BACKEND %q", c.Conversation.Backend)
	}
	if _, err := c.ConversationTTL(); err != nil {
		return err
	}

	if c.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTP.Port)
	}
	return nil
}
