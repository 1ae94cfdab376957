package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/parsers"
	"github.com/chative-router/server/internal/pipeline/prompts"
	logx "github.com/chative-router/server/pkg/logger"
)

// Config holds everything needed to build a Classifier.
type Config struct {
	Name      string
	Template  *prompts.Template
	Model     einomodel.BaseChatModel
	ModelName string
	// InputKey is the template placeholder bound to the request text.
	InputKey string
}

// Classifier maps a request to a free-text category label with one model call.
type Classifier struct {
	name      string
	template  *prompts.Template
	model     einomodel.BaseChatModel
	modelName string
	inputKey  string
}

func New(cfg Config) (*Classifier, error) {
	if cfg.Template == nil {
		return nil, fmt.Errorf("classifier template is nil")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("classifier model is nil")
	}
	if cfg.InputKey == "" {
		return nil, fmt.Errorf("classifier input key is empty")
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Template.Name()
	}
	return &Classifier{
		name:      name,
		template:  cfg.Template,
		model:     cfg.Model,
		modelName: cfg.ModelName,
		inputKey:  cfg.InputKey,
	}, nil
}

// Name returns the classifier name.
func (c *Classifier) Name() string {
	return c.name
}

// Classify returns the label exactly as the model produced it. The label is
// not checked against any vocabulary and failures are not retried.
func (c *Classifier) Classify(ctx context.Context, req model.Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", errx.EmptyRequest()
	}

	vars := req.VarsCopy()
	vars[c.inputKey] = req.Text

	msgs, err := c.template.Format(ctx, vars)
	if err != nil {
		return "", err
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      c.name,
		Type:      "Classifier",
		Component: components.ComponentOfChatModel,
	})
	out, err := c.model.Generate(ctx, msgs)
	if err != nil {
		logx.Error().Err(err).Str("classifier", c.name).Msg("classification call failed")
		return "", errx.WrapModel(c.modelName, model.StageAwaitingClassification.String(), err)
	}

	label, err := parsers.ExtractText(out)
	if err != nil {
		return "", errx.WrapModel(c.modelName, model.StageAwaitingClassification.String(), err)
	}

	logx.Debug().
		Str("classifier", c.name).
		Str("label", parsers.Snippet(label)).
		Msg("request classified")
	return label, nil
}
