package pipelines

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/fakes"
	"github.com/chative-router/server/internal/pipeline/model"
)

func lastUser(in []*schema.Message) string {
	for i := len(in) - 1; i >= 0; i-- {
		if in[i].Role == schema.User {
			return in[i].Content
		}
	}
	return ""
}

func TestReviewChainRunsBothBranchesOnce(t *testing.T) {
	var features, pros, cons atomic.Int32
	m := &fakes.ChatModel{Respond: func(_ context.Context, in []*schema.Message) (*schema.Message, error) {
		text := lastUser(in)
		switch {
		case strings.HasPrefix(text, "List the main features"):
			features.Add(1)
			return schema.AssistantMessage("V10 engine, open roof", nil), nil
		case strings.Contains(text, "list the pros"):
			pros.Add(1)
			assert.Contains(t, text, "V10 engine, open roof")
			return schema.AssistantMessage("fast", nil), nil
		case strings.Contains(text, "list the cons"):
			cons.Add(1)
			assert.Contains(t, text, "V10 engine, open roof")
			return schema.AssistantMessage("loud", nil), nil
		}
		return nil, errors.New("unexpected prompt: " + text)
	}}

	r, err := NewReviewChain(context.Background(), models(fakes.NewChatModel("unused"), m))
	require.NoError(t, err)

	out, err := r.Generate(context.Background(), model.NewRequest("Lamborghini Huracan Spider"))
	require.NoError(t, err)
	assert.Equal(t, "Pros: fast\n\nCons: loud", out)
	assert.Equal(t, int32(1), features.Load())
	assert.Equal(t, int32(1), pros.Load())
	assert.Equal(t, int32(1), cons.Load())
	assert.Equal(t, 3, m.Calls())
	assert.Contains(t, m.LastUserText(0), "Lamborghini Huracan Spider")
}

func TestReviewChainModelFailure(t *testing.T) {
	m := fakes.NewFailingChatModel(errors.New("quota exceeded"))
	r, err := NewReviewChain(context.Background(), models(fakes.NewChatModel("unused"), m))
	require.NoError(t, err)

	_, err = r.Generate(context.Background(), model.NewRequest("Ford F-150"))
	require.Error(t, err)
	assert.True(t, errx.IsUpstreamModel(err))
	assert.Equal(t, 1, m.Calls())
}

func TestReviewChainEmptyRequest(t *testing.T) {
	m := fakes.NewChatModel("x")
	r, err := NewReviewChain(context.Background(), models(fakes.NewChatModel("unused"), m))
	require.NoError(t, err)

	_, err = r.Generate(context.Background(), model.NewRequest("  "))
	assert.ErrorIs(t, err, errx.ErrEmptyRequest)
	assert.Zero(t, m.Calls())
}

func TestReviewChainRequiresModel(t *testing.T) {
	_, err := NewReviewChain(context.Background(), Models{})
	assert.Error(t, err)
}
