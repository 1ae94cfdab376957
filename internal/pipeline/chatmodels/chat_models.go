package chatmodels

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// New creates the chat model selected by cfg.Provider.
func New(ctx context.Context, cfg model.ChatModelConfig, creds model.Credentials) (einomodel.ToolCallingChatModel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		return NewGemini(ctx, cfg, creds)
	case ProviderOpenAI:
		return NewOpenAI(cfg, creds)
	default:
		return nil, fmt.Errorf("unknown chat model provider %q", cfg.Provider)
	}
}

// NewGemini creates a Gemini chat model through the eino-ext component.
func NewGemini(ctx context.Context, cfg model.ChatModelConfig, creds model.Credentials) (*gemini.ChatModel, error) {
	if creds.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  creds.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if creds.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = creds.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature, maxTokens := cfg.Temperature, cfg.MaxTokens
	gcfg := &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
	if cfg.ThinkingBudget > 0 {
		gcfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(cfg.ThinkingBudget),
		}
	}

	cm, err := gemini.NewChatModel(ctx, gcfg)
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("Error creating Gemini model")
		return nil, fmt.Errorf("error creating Gemini model %s: %w", cfg.Model, err)
	}
	logx.Debug().Str("provider", ProviderGemini).Str("model", cfg.Model).Msg("chat model created")
	return cm, nil
}
