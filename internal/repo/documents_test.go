package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative-router/server/internal/pipeline/fakes"
	"github.com/chative-router/server/internal/pipeline/model"
)

func sampleDocs() []*schema.Document {
	return []*schema.Document{
		{ID: "cars", Content: "electric cars have batteries and motors", MetaData: map[string]any{model.MetaSource: "cars.txt"}},
		{ID: "odyssey", Content: "odysseus sails home to ithaca", MetaData: map[string]any{model.MetaSource: "odyssey.txt"}},
		{ID: "go", Content: "go programs use goroutines and channels"},
	}
}

// exerciseStore runs the shared DocumentStore contract against store.
func exerciseStore(t *testing.T, store model.DocumentStore) {
	t.Helper()
	ctx := context.Background()

	ok, err := store.Exists(ctx, "demo")
	require.NoError(t, err)
	assert.False(t, ok)

	empty, err := store.Query(ctx, "demo", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Put(ctx, "demo", sampleDocs()))
	ok, err = store.Exists(ctx, "demo")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Query(ctx, "demo", "where does odysseus sail", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "odyssey", got[0].ID)
	assert.Equal(t, "odyssey.txt", got[0].MetaData[model.MetaSource])
	assert.GreaterOrEqual(t, got[0].Score(), got[1].Score())
	assert.Greater(t, got[0].Score(), 0.0)

	all, err := store.Query(ctx, "demo", "cars", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "cars", all[0].ID)

	none, err := store.Query(ctx, "demo", "cars", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	// same ID replaces
	require.NoError(t, store.Put(ctx, "demo", []*schema.Document{{ID: "go", Content: "ithaca is an island"}}))
	all, err = store.Query(ctx, "demo", "ithaca island", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "go", all[0].ID)

	ok, err = store.Exists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDocumentStore(t *testing.T) {
	_, rdb := newMiniredis(t)
	exerciseStore(t, NewRedisDocumentStore(rdb, fakes.NewEmbedder(64)))
}

func TestSqliteDocumentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "documents.sqlite")
	store, err := OpenSqliteDocumentStore(context.Background(), path, fakes.NewEmbedder(64))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestSqliteDocumentStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "documents.sqlite")
	store, err := OpenSqliteDocumentStore(ctx, path, fakes.NewEmbedder(64))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "demo", sampleDocs()))
	require.NoError(t, store.Close())

	reopened, err := OpenSqliteDocumentStore(ctx, path, fakes.NewEmbedder(64))
	require.NoError(t, err)
	defer reopened.Close()
	ok, err := reopened.Exists(ctx, "demo")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPutRejectsMissingIDAndEmbedderErrors(t *testing.T) {
	ctx := context.Background()
	_, rdb := newMiniredis(t)
	emb := fakes.NewEmbedder(8)
	store := NewRedisDocumentStore(rdb, emb)

	assert.Error(t, store.Put(ctx, "demo", []*schema.Document{{Content: "no id"}}))

	emb.Err = errors.New("quota")
	assert.ErrorContains(t, store.Put(ctx, "demo", sampleDocs()), "quota")
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float64{1}, []float64{1, 2}))
	assert.Zero(t, cosine([]float64{0, 0}, []float64{1, 1}))
}
