package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	pmodel "github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/parsers"
	logx "github.com/chative-router/server/pkg/logger"
)

// newModelHandler logs model calls with token usage and cost.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ev := logx.Debug().Str("run", info.Name).Str("type", info.Type)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).
					Str("user", parsers.Snippet(lastUserContent(input.Messages)))
			}
			ev.Msg("model call started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			ev := logx.Debug().Str("run", info.Name).Str("type", info.Type)
			if output == nil {
				ev.Msg("model call finished")
				return ctx
			}
			if output.Message != nil {
				ev = ev.Str("assistant", parsers.Snippet(output.Message.Content)).
					Int("tool_calls", len(output.Message.ToolCalls))
			}
			if output.TokenUsage != nil {
				modelName := ""
				if output.Config != nil {
					modelName = output.Config.Model
				}
				usage := &schema.TokenUsage{
					PromptTokens:     output.TokenUsage.PromptTokens,
					CompletionTokens: output.TokenUsage.CompletionTokens,
					TotalTokens:      output.TokenUsage.TotalTokens,
				}
				cost := pmodel.CostOf(modelName, usage)
				ev = ev.Str("model", modelName).
					Int("prompt_tokens", usage.PromptTokens).
					Int("completion_tokens", usage.CompletionTokens).
					Int("total_tokens", usage.TotalTokens).
					Float64("input_cost_usd", cost.Input).
					Float64("output_cost_usd", cost.Output).
					Float64("total_cost_usd", cost.Total())
			}
			ev.Msg("model call finished")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("run", info.Name).Str("type", info.Type).Msg("model call failed")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
