package repo

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
)

// storedDocument is the persisted form of a document and its embedding.
type storedDocument struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	MetaData map[string]any `json:"metadata,omitempty"`
	Vector   []float64      `json:"vector"`
}

func (d storedDocument) toSchema(score float64) *schema.Document {
	meta := make(map[string]any, len(d.MetaData)+1)
	for k, v := range d.MetaData {
		meta[k] = v
	}
	return (&schema.Document{ID: d.ID, Content: d.Content, MetaData: meta}).WithScore(score)
}

// embedDocuments embeds doc contents and pairs them with their vectors.
func embedDocuments(ctx context.Context, emb embedding.Embedder, docs []*schema.Document) ([]storedDocument, error) {
	texts := make([]string, 0, len(docs))
	kept := make([]*schema.Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		if d.ID == "" {
			return nil, fmt.Errorf("document without id")
		}
		texts = append(texts, d.Content)
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	vectors, err := emb.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(kept) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d documents", len(vectors), len(kept))
	}

	out := make([]storedDocument, len(kept))
	for i, d := range kept {
		meta := make(map[string]any, len(d.MetaData))
		for k, v := range d.MetaData {
			if k == "_score" {
				continue
			}
			meta[k] = v
		}
		out[i] = storedDocument{ID: d.ID, Content: d.Content, MetaData: meta, Vector: vectors[i]}
	}
	return out, nil
}

func embedQuery(ctx context.Context, emb embedding.Embedder, text string) ([]float64, error) {
	vectors, err := emb.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	return vectors[0], nil
}

// rank returns the k documents most similar to query, best first. Ties keep ID order.
func rank(docs []storedDocument, query []float64, k int) []*schema.Document {
	if k <= 0 || len(docs) == 0 {
		return []*schema.Document{}
	}
	type scored struct {
		doc   storedDocument
		score float64
	}
	all := make([]scored, len(docs))
	for i, d := range docs {
		all[i] = scored{doc: d, score: cosine(d.Vector, query)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].doc.ID < all[j].doc.ID
	})

	k = min(k, len(all))
	out := make([]*schema.Document, k)
	for i := range k {
		out[i] = all[i].doc.toSchema(all[i].score)
	}
	return out
}

// cosine returns the cosine similarity of a and b, or 0 when undefined.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
