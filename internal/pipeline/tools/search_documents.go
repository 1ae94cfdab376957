package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
)

const maxSearchResults = 10

// ===================================
// Search Documents Tool
// ===================================

type SearchDocumentsInput struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

type DocumentHit struct {
	ID      string  `json:"id"`
	Source  string  `json:"source,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type SearchDocumentsOutput struct {
	Documents []DocumentHit `json:"documents"`
	Total     int           `json:"total"`
}

// NewSearchDocumentsTool searches one collection of the document store.
func NewSearchDocumentsTool(store model.DocumentStore, collection string, defaultK int) tool.InvokableTool {
	if defaultK <= 0 {
		defaultK = 3
	}
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchDocuments,
			Desc: fmt.Sprintf("Search the indexed documents of collection %q. Returns the most similar passages with their source.", collection),
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "Standalone search question or keywords.",
					Required: true,
				},
				"k": {
					Type: schema.Integer,
					Desc: fmt.Sprintf("Number of passages to return (default: %d, max: %d)", defaultK, maxSearchResults),
				},
			}),
		},
		func(ctx context.Context, in *SearchDocumentsInput) (*SearchDocumentsOutput, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			k := in.K
			if k <= 0 {
				k = defaultK
			}
			k = min(k, maxSearchResults)

			docs, err := store.Query(ctx, collection, query, k)
			if err != nil {
				return nil, errx.WrapStore(err)
			}

			out := &SearchDocumentsOutput{Documents: make([]DocumentHit, 0, len(docs))}
			for _, d := range docs {
				if d == nil {
					continue
				}
				source, _ := d.MetaData[model.MetaSource].(string)
				out.Documents = append(out.Documents, DocumentHit{
					ID:      d.ID,
					Source:  source,
					Content: d.Content,
					Score:   d.Score(),
				})
			}
			out.Total = len(out.Documents)
			return out, nil
		},
	)
}
