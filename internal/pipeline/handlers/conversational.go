package handlers

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/prompts"
	logx "github.com/chative-router/server/pkg/logger"
)

// ConversationalConfig configures a ConversationalHandler. The retrieval
// template must be built WithHistory; it defaults to RetrievalQA().WithHistory().
type ConversationalConfig struct {
	Retrieval RetrievalConfig
	// Contextualize rewrites follow-ups into standalone questions; defaults to
	// prompts.Contextualize.
	Contextualize *prompts.Template
	// RewriteModel defaults to Retrieval.Model.
	RewriteModel einomodel.BaseChatModel
	RewriteName  string
}

// ConversationalHandler is a history-aware RetrievalHandler. With prior turns
// present it first rewrites the request into a standalone question and
// retrieves with that; the answer prompt still sees the original text and the
// history. History comes from the request and is never retained.
type ConversationalHandler struct {
	retrieval     *RetrievalHandler
	contextualize *prompts.Template
	rewrite       einomodel.BaseChatModel
	rewriteName   string
}

var _ Handler = (*ConversationalHandler)(nil)

func NewConversational(cfg ConversationalConfig) (*ConversationalHandler, error) {
	rc := cfg.Retrieval
	if rc.Template == nil {
		rc.Template = prompts.RetrievalQA().WithHistory()
	}
	if !rc.Template.HasHistory() {
		return nil, fmt.Errorf("template %s does not accept history", rc.Template.Name())
	}
	r, err := NewRetrieval(rc)
	if err != nil {
		return nil, err
	}

	ctxTpl := cfg.Contextualize
	if ctxTpl == nil {
		ctxTpl = prompts.Contextualize()
	}
	rewrite, rewriteName := cfg.RewriteModel, cfg.RewriteName
	if rewrite == nil {
		rewrite, rewriteName = rc.Model, rc.ModelName
	}
	return &ConversationalHandler{
		retrieval:     r,
		contextualize: ctxTpl,
		rewrite:       rewrite,
		rewriteName:   rewriteName,
	}, nil
}

func (h *ConversationalHandler) Generate(ctx context.Context, req model.Request) (string, error) {
	query := req.Text
	if len(req.History) > 0 {
		standalone, err := h.standalone(ctx, req)
		if err != nil {
			return "", err
		}
		query = standalone
	}
	return h.retrieval.answer(ctx, req, query)
}

func (h *ConversationalHandler) standalone(ctx context.Context, req model.Request) (string, error) {
	vars := req.VarsCopy()
	vars[prompts.KeyInput] = req.Text
	vars[prompts.HistoryKey] = req.HistoryCopy()

	msgs, err := h.contextualize.Format(ctx, vars)
	if err != nil {
		return "", err
	}
	out, err := complete(ctx, h.rewrite, h.rewriteName, h.contextualize.Name(), msgs)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return req.Text, nil
	}
	logx.Debug().Str("question", out).Msg("follow-up contextualized")
	return out, nil
}
