package fakes

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// Embedder is a deterministic bag-of-words embedder: texts sharing words get
// similar vectors.
type Embedder struct {
	Dimension int
	Err       error
	calls     atomic.Int64
}

var _ embedding.Embedder = (*Embedder)(nil)

func NewEmbedder(dimension int) *Embedder {
	return &Embedder{Dimension: dimension}
}

func (e *Embedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.calls.Add(1)
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

// Calls returns how many times EmbedStrings ran.
func (e *Embedder) Calls() int {
	return int(e.calls.Load())
}

func (e *Embedder) vector(text string) []float64 {
	dim := e.Dimension
	if dim <= 0 {
		dim = 32
	}
	v := make([]float64, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[int(h.Sum32())%dim]++
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}
