package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// chunkNamespace scopes deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("chative-router/chunks"))

// Split breaks documents into overlapping chunks and numbers them per source.
func Split(docs []*schema.Document, chunkSize, overlap int) ([]*schema.Document, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, chunkSize)
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
	)
	chunks, err := textsplitter.SplitDocuments(splitter, toLangchain(docs))
	if err != nil {
		return nil, fmt.Errorf("split documents: %w", err)
	}

	out := fromLangchain(chunks, "")
	seq := map[string]int{}
	for _, d := range out {
		source, _ := d.MetaData[model.MetaSource].(string)
		d.MetaData[model.MetaChunk] = seq[source]
		seq[source]++
	}
	return out, nil
}

// ChunkID derives a stable ID from a chunk's source and position.
func ChunkID(source string, chunk int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(source+"#"+strconv.Itoa(chunk))).String()
}

// Ingest stores docs in collection and returns how many were written. An
// existing collection is left untouched unless force is set.
func Ingest(ctx context.Context, store model.DocumentStore, collection string, docs []*schema.Document, force bool) (int, error) {
	exists, err := store.Exists(ctx, collection)
	if err != nil {
		return 0, errx.WrapStore(err)
	}
	if exists && !force {
		logx.Info().Str("collection", collection).Msg("collection already exists, skipping ingest")
		return 0, nil
	}

	for i, d := range docs {
		if d.MetaData == nil {
			d.MetaData = map[string]any{}
		}
		if d.ID != "" {
			continue
		}
		source, _ := d.MetaData[model.MetaSource].(string)
		chunk, ok := d.MetaData[model.MetaChunk].(int)
		if !ok {
			chunk = i
		}
		d.ID = ChunkID(source, chunk)
	}

	if err := store.Put(ctx, collection, docs); err != nil {
		return 0, errx.WrapStore(err)
	}
	logx.Info().Str("collection", collection).Int("documents", len(docs)).Msg("documents ingested")
	return len(docs), nil
}
