package handlers

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/prompts"
	logx "github.com/chative-router/server/pkg/logger"
)

const defaultK = 3

// RetrievalConfig configures a RetrievalHandler. Template defaults to
// prompts.RetrievalQA and K to 3.
type RetrievalConfig struct {
	Store      model.DocumentStore
	Collection string
	K          int
	Template   *prompts.Template
	Model      einomodel.BaseChatModel
	ModelName  string
}

// RetrievalHandler answers from the k most similar documents in a collection.
type RetrievalHandler struct {
	store      model.DocumentStore
	collection string
	k          int
	template   *prompts.Template
	model      einomodel.BaseChatModel
	modelName  string
}

var _ Handler = (*RetrievalHandler)(nil)

func NewRetrieval(cfg RetrievalConfig) (*RetrievalHandler, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("retrieval store is nil")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("retrieval model is nil")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("retrieval collection is empty")
	}
	tpl := cfg.Template
	if tpl == nil {
		tpl = prompts.RetrievalQA()
	}
	k := cfg.K
	if k <= 0 {
		k = defaultK
	}
	return &RetrievalHandler{
		store:      cfg.Store,
		collection: cfg.Collection,
		k:          k,
		template:   tpl,
		model:      cfg.Model,
		modelName:  cfg.ModelName,
	}, nil
}

func (h *RetrievalHandler) Generate(ctx context.Context, req model.Request) (string, error) {
	return h.answer(ctx, req, req.Text)
}

// answer retrieves with query and answers req.Text.
func (h *RetrievalHandler) answer(ctx context.Context, req model.Request, query string) (string, error) {
	docs, err := h.store.Query(ctx, h.collection, query, h.k)
	if err != nil {
		return "", errx.WrapStore(err)
	}
	logx.Debug().
		Str("collection", h.collection).
		Int("k", h.k).
		Int("retrieved", len(docs)).
		Msg("documents retrieved")

	vars := req.VarsCopy()
	vars[prompts.KeyInput] = req.Text
	vars[prompts.KeyContext] = JoinDocuments(docs)
	if h.template.HasHistory() {
		vars[prompts.HistoryKey] = req.HistoryCopy()
	}

	msgs, err := h.template.Format(ctx, vars)
	if err != nil {
		return "", err
	}
	return complete(ctx, h.model, h.modelName, h.template.Name(), msgs)
}

// JoinDocuments concatenates document contents separated by blank lines.
func JoinDocuments(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil || strings.TrimSpace(d.Content) == "" {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}
