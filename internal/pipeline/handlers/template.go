package handlers

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/prompts"
)

// TemplateConfig configures a TemplateHandler.
type TemplateConfig struct {
	Template  *prompts.Template
	Model     einomodel.BaseChatModel
	ModelName string
	// InputKeys are the placeholders bound to the request text.
	InputKeys []string
}

// TemplateHandler fills a fixed prompt with the request and makes one model call.
type TemplateHandler struct {
	template  *prompts.Template
	model     einomodel.BaseChatModel
	modelName string
	inputKeys []string
}

var _ Handler = (*TemplateHandler)(nil)

func NewTemplate(cfg TemplateConfig) (*TemplateHandler, error) {
	if cfg.Template == nil {
		return nil, fmt.Errorf("handler template is nil")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("handler model for %s is nil", cfg.Template.Name())
	}
	return &TemplateHandler{
		template:  cfg.Template,
		model:     cfg.Model,
		modelName: cfg.ModelName,
		inputKeys: append([]string(nil), cfg.InputKeys...),
	}, nil
}

// Name returns the template name.
func (h *TemplateHandler) Name() string {
	return h.template.Name()
}

func (h *TemplateHandler) Generate(ctx context.Context, req model.Request) (string, error) {
	vars := req.VarsCopy()
	for _, k := range h.inputKeys {
		vars[k] = req.Text
	}
	if h.template.HasHistory() {
		vars[prompts.HistoryKey] = req.HistoryCopy()
	}

	msgs, err := h.template.Format(ctx, vars)
	if err != nil {
		return "", err
	}
	return complete(ctx, h.model, h.modelName, h.template.Name(), msgs)
}
