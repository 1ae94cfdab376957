package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	repo := NewRedisConversationRepository(rdb, time.Minute)

	require.NoError(t, repo.AddMessage(ctx, "c1", schema.UserMessage("hi")))
	require.NoError(t, repo.AddMessage(ctx, "c1", schema.AssistantMessage("hello", nil)))

	h, err := repo.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "c1", h.ConversationID)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.Equal(t, "hello", h.Messages[1].Content)

	n, err := repo.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Minute, mr.TTL("conversation:c1:messages"))
}

func TestRedisConversationAddMessagesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	repo := NewRedisConversationRepository(rdb, time.Minute)

	require.NoError(t, repo.AddMessages(ctx, "c1", schema.UserMessage("q"), schema.AssistantMessage("a", nil)))
	n, err := repo.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mr.SetError("LOADING server is loading")
	require.Error(t, repo.AddMessages(ctx, "c1", schema.UserMessage("q2"), schema.AssistantMessage("a2", nil)))
	mr.SetError("")

	h, err := repo.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "a", h.Messages[1].Content)
}

func TestRedisConversationSaveHistoryReplaces(t *testing.T) {
	ctx := context.Background()
	_, rdb := newMiniredis(t)
	repo := NewRedisConversationRepository(rdb, 0)

	require.NoError(t, repo.AddMessage(ctx, "c1", schema.UserMessage("old")))
	require.NoError(t, repo.SaveHistory(ctx, "c1", []*schema.Message{
		schema.UserMessage("q"),
		schema.AssistantMessage("a", nil),
		schema.UserMessage("q2"),
	}))

	h, err := repo.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 3)
	assert.Equal(t, "q", h.Messages[0].Content)

	require.NoError(t, repo.SaveHistory(ctx, "c1", nil))
	n, err := repo.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisConversationEmptyAndClear(t *testing.T) {
	ctx := context.Background()
	_, rdb := newMiniredis(t)
	repo := NewRedisConversationRepository(rdb, time.Minute)

	h, err := repo.LoadHistory(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)

	require.NoError(t, repo.AddMessage(ctx, "c2", schema.UserMessage("x")))
	require.NoError(t, repo.ClearHistory(ctx, "c2"))
	n, err := repo.GetMessageCount(ctx, "c2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisConversationUnavailable(t *testing.T) {
	mr, rdb := newMiniredis(t)
	repo := NewRedisConversationRepository(rdb, time.Minute)
	mr.Close()

	err := repo.AddMessage(context.Background(), "c1", schema.UserMessage("hi"))
	require.Error(t, err)
}
