package repo

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/chative-router/server/internal/core/error"
)

func TestPostgresEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS chats")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgresConversationRepository(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	msg := schema.UserMessage("hi")
	b, _ := json.Marshal(msg)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chats (id, chat_history) VALUES ($1, jsonb_build_array($2::jsonb))")).
		WithArgs("c1", string(b)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresConversationRepository(mock).AddMessage(context.Background(), "c1", msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddMessagesSingleStatement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	msgs := []*schema.Message{schema.UserMessage("q"), schema.AssistantMessage("a", nil)}
	b, _ := json.Marshal(msgs)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chats (id, chat_history) VALUES ($1, $2::jsonb)\nON CONFLICT (id) DO UPDATE SET chat_history = chats.chat_history || EXCLUDED.chat_history")).
		WithArgs("c1", string(b)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresConversationRepository(mock)
	require.NoError(t, repo.AddMessages(context.Background(), "c1", msgs...))
	require.NoError(t, repo.AddMessages(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	stored, _ := json.Marshal([]*schema.Message{schema.UserMessage("q"), schema.AssistantMessage("a", nil)})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT chat_history FROM chats WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"chat_history"}).AddRow(stored))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT chat_history FROM chats WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresConversationRepository(mock)
	h, err := repo.LoadHistory(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "a", h.Messages[1].Content)

	h, err = repo.LoadHistory(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	msgs := []*schema.Message{schema.UserMessage("q")}
	b, _ := json.Marshal(msgs)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET chat_history = EXCLUDED.chat_history")).
		WithArgs("c1", string(b)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresConversationRepository(mock).SaveHistory(context.Background(), "c1", msgs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCountAndClear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT jsonb_array_length(chat_history) FROM chats WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"jsonb_array_length"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT jsonb_array_length(chat_history) FROM chats WHERE id = $1")).
		WithArgs("c2").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chats WHERE id = $1")).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewPostgresConversationRepository(mock)
	n, err := repo.GetMessageCount(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = repo.GetMessageCount(context.Background(), "c2")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.ClearHistory(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresErrorsAreWrapped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chats")).
		WithArgs("c1").
		WillReturnError(errors.New("connection refused"))

	err = NewPostgresConversationRepository(mock).ClearHistory(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
	assert.Equal(t, errx.PostgresErrorMessage, errx.MessageOf(err))
}
