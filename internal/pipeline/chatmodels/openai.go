package chatmodels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

// OpenAI adapts the go-openai chat completion client to eino's chat model interface.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	tools       []*schema.ToolInfo
}

var _ einomodel.ToolCallingChatModel = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI chat model. OpenAIBaseURL points it at any
// compatible endpoint.
func NewOpenAI(cfg model.ChatModelConfig, creds model.Credentials) (*OpenAI, error) {
	if creds.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model is empty")
	}
	clientCfg := openai.DefaultConfig(creds.OpenAIAPIKey)
	if creds.OpenAIBaseURL != "" {
		clientCfg.BaseURL = creds.OpenAIBaseURL
	}
	logx.Debug().Str("provider", ProviderOpenAI).Str("model", cfg.Model).Msg("chat model created")
	return &OpenAI{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (m *OpenAI) GetType() string { return "OpenAI" }

func (m *OpenAI) IsCallbacksEnabled() bool { return true }

// WithTools returns a copy bound to tools.
func (m *OpenAI) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	if len(tools) == 0 {
		return nil, errors.New("no tools to bind")
	}
	c := *m
	c.tools = append([]*schema.ToolInfo(nil), tools...)
	return &c, nil
}

func (m *OpenAI) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (out *schema.Message, err error) {
	o := einomodel.GetCommonOptions(&einomodel.Options{
		Model:       &m.model,
		Temperature: &m.temperature,
		MaxTokens:   &m.maxTokens,
		Tools:       m.tools,
	}, opts...)

	conf := &einomodel.Config{Model: deref(o.Model)}
	if o.Temperature != nil {
		conf.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		conf.MaxTokens = *o.MaxTokens
	}

	ctx = callbacks.OnStart(ctx, &einomodel.CallbackInput{Messages: in, Tools: o.Tools, Config: conf})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	req, err := buildRequest(in, o)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	out = toMessage(resp.Choices[0])
	out.ResponseMeta.Usage = &schema.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	callbacks.OnEnd(ctx, &einomodel.CallbackOutput{
		Message: out,
		Config:  conf,
		TokenUsage: &einomodel.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	})
	return out, nil
}

// Stream delivers the complete response as a single chunk.
func (m *OpenAI) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func buildRequest(in []*schema.Message, o *einomodel.Options) (openai.ChatCompletionRequest, error) {
	req := openai.ChatCompletionRequest{
		Model:    deref(o.Model),
		Messages: make([]openai.ChatCompletionMessage, 0, len(in)),
		Stop:     o.Stop,
	}
	if o.Temperature != nil {
		req.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil && *o.MaxTokens > 0 {
		req.MaxCompletionTokens = *o.MaxTokens
	}
	if o.TopP != nil {
		req.TopP = *o.TopP
	}

	for _, msg := range in {
		if msg == nil {
			continue
		}
		req.Messages = append(req.Messages, toOpenAIMessage(msg))
	}

	for _, t := range o.Tools {
		def, err := toFunctionDefinition(t)
		if err != nil {
			return req, err
		}
		req.Tools = append(req.Tools, openai.Tool{Type: openai.ToolTypeFunction, Function: def})
	}
	return req, nil
}

func toOpenAIMessage(msg *schema.Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       string(msg.Role),
		Content:    msg.Content,
		Name:       msg.Name,
		ToolCallID: msg.ToolCallID,
	}
	for _, tc := range msg.ToolCalls {
		tcType := openai.ToolTypeFunction
		if tc.Type != "" {
			tcType = openai.ToolType(tc.Type)
		}
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: tcType,
			Function: openai.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

func toFunctionDefinition(t *schema.ToolInfo) (*openai.FunctionDefinition, error) {
	def := &openai.FunctionDefinition{Name: t.Name, Description: t.Desc}
	if t.ParamsOneOf == nil {
		def.Parameters = json.RawMessage(`{"type":"object","properties":{}}`)
		return def, nil
	}
	js, err := t.ParamsOneOf.ToJSONSchema()
	if err != nil {
		return nil, fmt.Errorf("tool %s schema: %w", t.Name, err)
	}
	def.Parameters = js
	return def, nil
}

func toMessage(choice openai.ChatCompletionChoice) *schema.Message {
	out := &schema.Message{
		Role:         schema.Assistant,
		Content:      choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{FinishReason: string(choice.FinishReason)},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
