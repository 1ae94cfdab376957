package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/prompts"
	logx "github.com/chative-router/server/pkg/logger"
)

const (
	NodeInputConverter = "InputConverter"
	NodeChatModel      = "ChatModel"
	NodeToolExecutor   = "ToolExecutor"
)

// newInputConverterNode renders the system prompt followed by prior turns and the request.
func newInputConverterNode(system *prompts.Template, vars map[string]any) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, req model.Request) ([]*schema.Message, error) {
		if strings.TrimSpace(req.Text) == "" {
			return nil, errx.EmptyRequest()
		}
		merged := req.VarsCopy()
		for k, v := range vars {
			merged[k] = v
		}
		sys, err := system.Format(ctx, merged)
		if err != nil {
			return nil, err
		}
		msgs := make([]*schema.Message, 0, len(sys)+len(req.History)+1)
		msgs = append(msgs, sys...)
		msgs = append(msgs, req.HistoryCopy()...)
		msgs = append(msgs, schema.UserMessage(req.Text))
		return msgs, nil
	})
}

// newChatModelPreHandler accumulates the conversation in state, repairs tool
// results without a tool_call_id and appends a wrap-up notice at the limit.
func newChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *State) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *State) ([]*schema.Message, error) {
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			state.History = append(state.History, &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Answer now using the information you have already gathered and mention anything you could not look up.",
					normalizeMaxToolCalls(maxToolCalls),
				),
			})
		}
		return state.History, nil
	}
}

// newChatModelPostHandler accounts usage cost and assigns missing tool call IDs.
func newChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *State) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *State) (*schema.Message, error) {
		if out == nil {
			return nil, errx.WrapModel(modelName, model.StageDispatched.String(), errx.ErrEmptyModelResponse)
		}
		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			state.TotalCostUSD += model.CostOf(modelName, out.ResponseMeta.Usage).Total()
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
		}

		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.History = append(state.History, out)
		return out, nil
	}
}

// newToolExecutorCondition loops back through the tools node until the model
// stops calling tools or the limit was reached.
func newToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, in *schema.Message) (string, error) {
		var limitReached bool
		err := compose.ProcessState(ctx, func(_ context.Context, state *State) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})
		if err != nil {
			return "", err
		}
		if limitReached {
			logx.Debug().Msg("tool limit reached, finishing")
			return compose.END, nil
		}
		if len(in.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(in.ToolCalls)).Msg("routing to tools")
			return NodeToolExecutor, nil
		}
		return compose.END, nil
	}
}

func newToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *State) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *State) (*schema.Message, error) {
		if incrementToolCallAndCheck(state, maxToolCalls) {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Msg("tool call limit exceeded")
		}
		return in, nil
	}
}
