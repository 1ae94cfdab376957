package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapModel(t *testing.T) {
	transport := errors.New("connection reset")
	err := WrapModel("gpt-4o-mini", "awaiting_classification", transport)

	require.Error(t, err)
	assert.True(t, IsUpstreamModel(err))
	assert.False(t, IsTemplateBinding(err))
	assert.ErrorIs(t, err, transport)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, UpstreamModelMessage, MessageOf(err))

	var up *UpstreamModelError
	require.True(t, errors.As(fmt.Errorf("branch positive: %w", err), &up))
	assert.Equal(t, "gpt-4o-mini", up.Model)
	assert.Equal(t, "awaiting_classification", up.Stage)

	assert.NoError(t, WrapModel("m", "s", nil))
}

func TestNewTemplateBinding(t *testing.T) {
	err := NewTemplateBinding("faq", []string{"topic", "audience"})

	assert.True(t, IsTemplateBinding(err))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(err))
	assert.Contains(t, err.Error(), "topic, audience")

	var app *AppError
	require.True(t, errors.As(err, &app))
	assert.Equal(t, TemplateBindingMessage, app.Message)
}

func TestEmptyRequest(t *testing.T) {
	err := EmptyRequest()
	assert.ErrorIs(t, err, ErrEmptyRequest)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("dial tcp"))))
}

func TestWrapPostgres(t *testing.T) {
	assert.NoError(t, WrapPostgres(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapPostgres(pgx.ErrNoRows)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapPostgres(errors.New("conn refused"))))
}

func TestWrapStoreKeepsAppErrors(t *testing.T) {
	inner := WrapRedis(errors.New("timeout"))
	assert.Same(t, inner, WrapStore(inner))
	assert.Equal(t, StoreErrorMessage, MessageOf(WrapStore(errors.New("disk full"))))
}

func TestStatusOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, SystemErrorMessage, MessageOf(err))
}
