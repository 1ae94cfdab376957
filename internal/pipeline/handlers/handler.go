package handlers

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/parsers"
)

// Handler produces the response text for a routed request.
type Handler interface {
	Generate(ctx context.Context, req model.Request) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req model.Request) (string, error)

func (f HandlerFunc) Generate(ctx context.Context, req model.Request) (string, error) {
	return f(ctx, req)
}

// complete runs one model call and extracts its text.
func complete(ctx context.Context, m einomodel.BaseChatModel, modelName, runName string, msgs []*schema.Message) (string, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      runName,
		Type:      "Handler",
		Component: components.ComponentOfChatModel,
	})
	out, err := m.Generate(ctx, msgs)
	if err != nil {
		return "", errx.WrapModel(modelName, model.StageDispatched.String(), err)
	}
	text, err := parsers.ExtractText(out)
	if err != nil {
		return "", errx.WrapModel(modelName, model.StageDispatched.String(), err)
	}
	return text, nil
}
