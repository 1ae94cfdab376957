package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/chative-router/server/internal/core/error"
)

func TestPlaceholders(t *testing.T) {
	tpl := New("t",
		System("Reply as JSON like {{\"answer\": ...}} about {topic}."),
		Human("{topic} for {audience}, then {topic} again"),
	)
	assert.Equal(t, []string{"topic", "audience"}, tpl.Placeholders())
	assert.Equal(t, []string{"audience"}, tpl.Missing(map[string]any{"topic": "cars"}))
}

func TestFormatRendersParts(t *testing.T) {
	msgs, err := PositiveFeedback().Format(context.Background(), map[string]any{KeyFeedback: "great phone"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "Generate a thank you message for this positive feedback: great phone.", msgs[1].Content)
}

func TestFormatMissingPlaceholder(t *testing.T) {
	tpl := New("topic_post", Human("Write about {topic}"))
	_, err := tpl.Format(context.Background(), map[string]any{})
	require.Error(t, err)

	assert.True(t, errx.IsTemplateBinding(err))
	var tb *errx.TemplateBindingError
	require.ErrorAs(t, err, &tb)
	assert.Equal(t, "topic_post", tb.Template)
	assert.Equal(t, []string{"topic"}, tb.Missing)
}

func TestWithHistoryInsertsTurnsBeforeQuestion(t *testing.T) {
	tpl := Contextualize()
	history := []*schema.Message{
		schema.UserMessage("Who wrote the Odyssey?"),
		schema.AssistantMessage("Homer.", nil),
	}

	msgs, err := tpl.Format(context.Background(), map[string]any{KeyInput: "When did he live?", HistoryKey: history})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "Who wrote the Odyssey?", msgs[1].Content)
	assert.Equal(t, "Homer.", msgs[2].Content)
	assert.Equal(t, "When did he live?", msgs[3].Content)

	// history is optional
	msgs, err = tpl.Format(context.Background(), map[string]any{KeyInput: "When did Homer live?"})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestBuiltInTemplatesDeclareInputs(t *testing.T) {
	cases := []struct {
		tpl  *Template
		want []string
	}{
		{FeedbackClassification(), []string{KeyFeedback}},
		{PositiveFeedback(), []string{KeyFeedback}},
		{NegativeFeedback(), []string{KeyFeedback}},
		{NeutralFeedback(), []string{KeyFeedback}},
		{EscalateFeedback(), []string{KeyFeedback}},
		{ContentClassification(), []string{KeyPrompt}},
		{FAQ(), []string{KeyPrompt}},
		{ContentGeneration(), []string{KeyPrompt}},
		{RetrievalQA(), []string{KeyContext, KeyInput}},
		{Contextualize(), []string{KeyInput}},
		{AgentSystem(), []string{"search_tool", "collection", "weather_tool"}},
		{CarFeatures(), []string{KeyCar}},
		{ProsAnalysis(), []string{KeyFeatures}},
		{ConsAnalysis(), []string{KeyFeatures}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.tpl.Placeholders(), c.tpl.Name())
	}
}
