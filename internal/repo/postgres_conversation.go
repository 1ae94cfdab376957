package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

// PgxQuerier is the subset of *pgxpool.Pool the Postgres repository uses.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createChatsSQL = `CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	chat_history JSONB NOT NULL DEFAULT '[]'::jsonb
)`
	appendMessageSQL = `INSERT INTO chats (id, chat_history) VALUES ($1, jsonb_build_array($2::jsonb))
ON CONFLICT (id) DO UPDATE SET chat_history = chats.chat_history || EXCLUDED.chat_history`
	appendMessagesSQL = `INSERT INTO chats (id, chat_history) VALUES ($1, $2::jsonb)
ON CONFLICT (id) DO UPDATE SET chat_history = chats.chat_history || EXCLUDED.chat_history`
	selectHistorySQL = `SELECT chat_history FROM chats WHERE id = $1`
	upsertHistorySQL = `INSERT INTO chats (id, chat_history) VALUES ($1, $2::jsonb)
ON CONFLICT (id) DO UPDATE SET chat_history = EXCLUDED.chat_history`
	deleteChatSQL   = `DELETE FROM chats WHERE id = $1`
	countHistorySQL = `SELECT jsonb_array_length(chat_history) FROM chats WHERE id = $1`
)

// PostgresConversationRepository keeps each conversation as a JSONB array in the chats table.
type PostgresConversationRepository struct {
	db PgxQuerier
}

func NewPostgresConversationRepository(db PgxQuerier) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

// EnsureSchema creates the chats table when missing.
func (r *PostgresConversationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createChatsSQL); err != nil {
		logx.Error().Err(err).Msg("failed to create chats table")
		return errx.WrapPostgres(err)
	}
	return nil
}

func (r *PostgresConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if _, err := r.db.Exec(ctx, appendMessageSQL, conversationID, string(b)); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to append message")
		return errx.WrapPostgres(err)
	}
	return nil
}

// AddMessages appends the messages with a single statement.
func (r *PostgresConversationRepository) AddMessages(ctx context.Context, conversationID string, messages ...*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	if _, err := r.db.Exec(ctx, appendMessagesSQL, conversationID, string(b)); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Int("count", len(messages)).Msg("failed to append messages")
		return errx.WrapPostgres(err)
	}
	return nil
}

func (r *PostgresConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, selectHistorySQL, conversationID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.ConversationHistory{ConversationID: conversationID, Messages: []*schema.Message{}}, nil
		}
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to load conversation history")
		return nil, errx.WrapPostgres(err)
	}

	msgs := []*schema.Message{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("unmarshal chat history: %w", err)
		}
	}
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *PostgresConversationRepository) SaveHistory(ctx context.Context, conversationID string, messages []*schema.Message) error {
	if messages == nil {
		messages = []*schema.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal chat history: %w", err)
	}
	if _, err := r.db.Exec(ctx, upsertHistorySQL, conversationID, string(b)); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to save conversation history")
		return errx.WrapPostgres(err)
	}
	return nil
}

func (r *PostgresConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	if _, err := r.db.Exec(ctx, deleteChatSQL, conversationID); err != nil {
		return errx.WrapPostgres(err)
	}
	return nil
}

func (r *PostgresConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countHistorySQL, conversationID).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, errx.WrapPostgres(err)
	}
	return n, nil
}

var _ model.ConversationRepository = (*PostgresConversationRepository)(nil)
