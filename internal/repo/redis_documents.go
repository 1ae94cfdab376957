package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

// RedisDocumentStore keeps one hash per collection, field = document ID.
type RedisDocumentStore struct {
	rdb redis.Cmdable
	emb embedding.Embedder
}

func NewRedisDocumentStore(rdb redis.Cmdable, emb embedding.Embedder) *RedisDocumentStore {
	return &RedisDocumentStore{rdb: rdb, emb: emb}
}

func (s *RedisDocumentStore) collectionKey(collection string) string {
	return fmt.Sprintf("docstore:%s", collection)
}

func (s *RedisDocumentStore) Exists(ctx context.Context, collection string) (bool, error) {
	n, err := s.rdb.HLen(ctx, s.collectionKey(collection)).Result()
	if err != nil {
		return false, errx.WrapRedis(err)
	}
	return n > 0, nil
}

func (s *RedisDocumentStore) Put(ctx context.Context, collection string, docs []*schema.Document) error {
	stored, err := embedDocuments(ctx, s.emb, docs)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}

	values := make([]any, 0, len(stored)*2)
	for _, d := range stored {
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", d.ID, err)
		}
		values = append(values, d.ID, b)
	}
	key := s.collectionKey(collection)
	if err := s.rdb.HSet(ctx, key, values...).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store documents in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisDocumentStore) Query(ctx context.Context, collection string, text string, k int) ([]*schema.Document, error) {
	if k <= 0 {
		return []*schema.Document{}, nil
	}
	key := s.collectionKey(collection)
	rows, err := s.rdb.HVals(ctx, key).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	if len(rows) == 0 {
		return []*schema.Document{}, nil
	}

	docs := make([]storedDocument, 0, len(rows))
	for _, row := range rows {
		var d storedDocument
		if err := json.Unmarshal([]byte(row), &d); err != nil {
			return nil, fmt.Errorf("unmarshal document in %s: %w", key, err)
		}
		docs = append(docs, d)
	}

	vec, err := embedQuery(ctx, s.emb, text)
	if err != nil {
		return nil, err
	}
	return rank(docs, vec, k), nil
}

var _ model.DocumentStore = (*RedisDocumentStore)(nil)
