package embedder

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	openai "github.com/sashabaranov/go-openai"

	"github.com/chative-router/server/internal/pipeline/model"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// maxBatch is the number of inputs sent per embeddings request.
const maxBatch = 256

// OpenAI creates embeddings with the OpenAI embeddings endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ embedding.Embedder = (*OpenAI)(nil)

func New(modelName string, creds model.Credentials) (*OpenAI, error) {
	if creds.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	cfg := openai.DefaultConfig(creds.OpenAIAPIKey)
	if creds.OpenAIBaseURL != "" {
		cfg.BaseURL = creds.OpenAIBaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: modelName}, nil
}

func (e *OpenAI) GetType() string { return "OpenAI" }

func (e *OpenAI) IsCallbacksEnabled() bool { return true }

// EmbedStrings returns one vector per text, in input order.
func (e *OpenAI) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) (vectors [][]float64, err error) {
	o := embedding.GetCommonOptions(&embedding.Options{Model: &e.model}, opts...)
	modelName := e.model
	if o.Model != nil && *o.Model != "" {
		modelName = *o.Model
	}

	conf := &embedding.Config{Model: modelName}
	ctx = callbacks.OnStart(ctx, &embedding.CallbackInput{Texts: texts, Config: conf})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	vectors = make([][]float64, len(texts))
	usage := &embedding.TokenUsage{}
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(modelName),
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("create embeddings: got %d vectors for %d inputs", len(resp.Data), end-start)
		}
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= end-start {
				return nil, fmt.Errorf("create embeddings: index %d out of range", d.Index)
			}
			v := make([]float64, len(d.Embedding))
			for i, f := range d.Embedding {
				v[i] = float64(f)
			}
			vectors[start+d.Index] = v
		}
		usage.PromptTokens += resp.Usage.PromptTokens
		usage.TotalTokens += resp.Usage.TotalTokens
	}

	callbacks.OnEnd(ctx, &embedding.CallbackOutput{Embeddings: vectors, Config: conf, TokenUsage: usage})
	return vectors, nil
}
