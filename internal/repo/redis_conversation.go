package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

// RedisConversationRepository keeps each conversation as a list of JSON
// messages under conversation:{id}:messages. Every write refreshes the TTL.
type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl}
}

func conversationKey(conversationID string) string {
	return "conversation:" + conversationID + ":messages"
}

func encodeMessages(messages ...*schema.Message) ([]any, error) {
	rows := make([]any, 0, len(messages))
	for i, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal message %d: %w", i, err)
		}
		rows = append(rows, b)
	}
	return rows, nil
}

func decodeMessages(conversationID string, rows []string) ([]*schema.Message, error) {
	msgs := make([]*schema.Message, 0, len(rows))
	for i, row := range rows {
		m := &schema.Message{}
		if err := json.Unmarshal([]byte(row), m); err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Int("index", i).Msg("stored message is not valid JSON")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// write replaces (when reset is set) or extends the list in one transaction.
func (r *RedisConversationRepository) write(ctx context.Context, conversationID string, reset bool, messages []*schema.Message) error {
	rows, err := encodeMessages(messages...)
	if err != nil {
		return err
	}
	key := conversationKey(conversationID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if reset {
			pipe.Del(ctx, key)
		}
		if len(rows) == 0 {
			return nil
		}
		pipe.RPush(ctx, key, rows...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Bool("reset", reset).Msg("conversation write failed")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	return r.write(ctx, conversationID, false, []*schema.Message{message})
}

func (r *RedisConversationRepository) AddMessages(ctx context.Context, conversationID string, messages ...*schema.Message) error {
	return r.write(ctx, conversationID, false, messages)
}

func (r *RedisConversationRepository) SaveHistory(ctx context.Context, conversationID string, messages []*schema.Message) error {
	return r.write(ctx, conversationID, true, messages)
}

func (r *RedisConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	rows, err := r.rdb.LRange(ctx, conversationKey(conversationID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("conversation load failed")
		return nil, errx.WrapRedis(err)
	}
	msgs, err := decodeMessages(conversationID, rows)
	if err != nil {
		return nil, err
	}
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	if err := r.rdb.Del(ctx, conversationKey(conversationID)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	n, err := r.rdb.LLen(ctx, conversationKey(conversationID)).Result()
	if err != nil && err != redis.Nil {
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}
