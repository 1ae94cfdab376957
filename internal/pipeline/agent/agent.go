package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/parsers"
	"github.com/chative-router/server/internal/pipeline/prompts"
	"github.com/chative-router/server/internal/pipeline/tools"
	logx "github.com/chative-router/server/pkg/logger"
)

// Config holds everything needed to compose the agent graph.
type Config struct {
	Model     einomodel.ToolCallingChatModel
	ModelName string
	Tools     []tool.BaseTool
	// System defaults to prompts.AgentSystem; SystemVars fill its placeholders.
	System       *prompts.Template
	SystemVars   map[string]any
	MaxToolCalls int
}

// Agent answers a request with a chat model that may call tools in a loop.
type Agent struct {
	runnable  compose.Runnable[model.Request, *schema.Message]
	modelName string
}

var _ handlers.Handler = (*Agent)(nil)

// New builds and compiles the agent graph.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("agent model is nil")
	}
	system := cfg.System
	if system == nil {
		system = prompts.AgentSystem()
	}
	if missing := system.Missing(cfg.SystemVars); len(missing) > 0 {
		return nil, errx.NewTemplateBinding(system.Name(), missing)
	}

	b := &graphBuilder{
		cfg:    cfg,
		system: system,
		graph: compose.NewGraph[model.Request, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *State {
				return &State{}
			}),
		),
	}

	chatModel := einomodel.BaseChatModel(cfg.Model)
	if len(cfg.Tools) > 0 {
		bound, err := b.setupTools(ctx)
		if err != nil {
			return nil, err
		}
		chatModel = bound
	}

	if err := b.addNodes(chatModel); err != nil {
		return nil, err
	}
	if err := b.addEdges(); err != nil {
		return nil, err
	}
	runnable, err := b.compile(ctx)
	if err != nil {
		return nil, err
	}
	return &Agent{runnable: runnable, modelName: cfg.ModelName}, nil
}

// Generate runs the graph for one request.
func (a *Agent) Generate(ctx context.Context, req model.Request) (string, error) {
	out, err := a.runnable.Invoke(ctx, req)
	if err != nil {
		if errx.IsTemplateBinding(err) || errx.IsUpstreamModel(err) || errors.Is(err, errx.ErrEmptyRequest) {
			return "", err
		}
		return "", errx.WrapModel(a.modelName, model.StageDispatched.String(), err)
	}
	if out != nil {
		if total, ok := out.Extra["usage_cost_total_usd"].(float64); ok {
			logx.Debug().Str("model", a.modelName).Float64("total_cost_usd", total).Msg("agent usage")
		}
	}
	return parsers.ExtractText(out)
}

type graphBuilder struct {
	cfg    Config
	system *prompts.Template
	graph  *compose.Graph[model.Request, *schema.Message]
}

// setupTools binds the tools to the model and adds the tools node.
func (b *graphBuilder) setupTools(ctx context.Context) (einomodel.BaseChatModel, error) {
	infos, err := tools.GetToolInfos(ctx, b.cfg.Tools)
	if err != nil {
		return nil, err
	}
	bound, err := b.cfg.Model.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("bind tools to model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               b.cfg.Tools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", parsers.Snippet(input)).
				Msg("unknown tool call, returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: sanitizeArguments,
	})
	if err != nil {
		return nil, fmt.Errorf("create tools node: %w", err)
	}

	if err := b.graph.AddToolsNode(NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(newToolExecutorPreHandler(b.cfg.MaxToolCalls)),
	); err != nil {
		return nil, err
	}
	return bound, nil
}

func (b *graphBuilder) addNodes(chatModel einomodel.BaseChatModel) error {
	if err := b.graph.AddLambdaNode(NodeInputConverter,
		newInputConverterNode(b.system, b.cfg.SystemVars),
	); err != nil {
		return err
	}
	return b.graph.AddChatModelNode(NodeChatModel, chatModel,
		compose.WithStatePreHandler(newChatModelPreHandler(b.cfg.MaxToolCalls)),
		compose.WithStatePostHandler(newChatModelPostHandler(b.cfg.ModelName)),
	)
}

func (b *graphBuilder) addEdges() error {
	if err := b.graph.AddEdge(compose.START, NodeInputConverter); err != nil {
		return err
	}
	if err := b.graph.AddEdge(NodeInputConverter, NodeChatModel); err != nil {
		return err
	}
	if len(b.cfg.Tools) == 0 {
		return b.graph.AddEdge(NodeChatModel, compose.END)
	}
	if err := b.graph.AddEdge(NodeToolExecutor, NodeChatModel); err != nil {
		return err
	}
	branch := compose.NewGraphBranch(newToolExecutorCondition(), map[string]bool{
		NodeToolExecutor: true,
		compose.END:      true,
	})
	if err := b.graph.AddBranch(NodeChatModel, branch); err != nil {
		return fmt.Errorf("add tool branch: %w", err)
	}
	return nil
}

func (b *graphBuilder) compile(ctx context.Context) (compose.Runnable[model.Request, *schema.Message], error) {
	// bound the loop even if a provider keeps calling tools
	maxSteps := max(20, 10+normalizeMaxToolCalls(b.cfg.MaxToolCalls)*2)
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps), compose.WithGraphName("agent"))
	if err != nil {
		return nil, fmt.Errorf("compile agent graph: %w", err)
	}
	logx.Debug().Int("max_steps", maxSteps).Int("tools", len(b.cfg.Tools)).Msg("agent graph compiled")
	return runnable, nil
}

// sanitizeArguments trims string arguments and coerces numeric strings so
// small formatting slips by the model do not fail the tool call.
func sanitizeArguments(ctx context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments, nil
	}
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		switch {
		case name == tools.ToolSearchDocuments && k == "k",
			name == tools.ToolGetWeather && (k == "latitude" || k == "longitude"):
			if f, err := json.Number(s).Float64(); err == nil {
				m[k] = f
				continue
			}
			delete(m, k)
		default:
			m[k] = s
		}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return arguments, nil
	}
	return string(out), nil
}
