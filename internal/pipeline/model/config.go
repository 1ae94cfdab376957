package model

// ================ Config ================

// ChatModelConfig selects and tunes one generative model.
type ChatModelConfig struct {
	Provider    string  `envconfig:"PROVIDER" default:"gemini"`
	Model       string  `envconfig:"MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"TEMPERATURE" default:"0.4"`
	// ThinkingBudget applies to Gemini only; zero disables thinking output.
	ThinkingBudget int32 `envconfig:"THINKING_BUDGET" default:"0"`
}

// Credentials holds provider API keys and endpoint overrides.
type Credentials struct {
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
}

// RouterConfig controls how category labels are matched against branches.
type RouterConfig struct {
	MatchMode string `envconfig:"ROUTER_MATCH_MODE" default:"contains"`
}

// RetrievalConfig controls the document store used by retrieval handlers.
type RetrievalConfig struct {
	Backend        string `envconfig:"DOCSTORE_BACKEND" default:"sqlite"`
	Path           string `envconfig:"DOCSTORE_PATH" default:"db/documents.sqlite"`
	Collection     string `envconfig:"DOCSTORE_COLLECTION" default:"langchain_demo"`
	K              int    `envconfig:"RETRIEVAL_K" default:"3"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
}

// ConversationConfig controls the conversation store.
type ConversationConfig struct {
	Backend  string `envconfig:"CONVERSATION_BACKEND" default:"redis"`
	TTL      string `envconfig:"CONVERSATION_TTL" default:"15m"`
	MaxTurns int    `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
}

// AgentConfig controls the tool-calling agent.
type AgentConfig struct {
	MaxToolCalls   int    `envconfig:"AGENT_MAX_TOOL_CALLS" default:"10"`
	WeatherBaseURL string `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com/v1/forecast"`
}
