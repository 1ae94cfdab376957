package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/fakes"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/prompts"
	"github.com/chative-router/server/internal/pipeline/tools"
)

func terseSystem() *prompts.Template {
	return prompts.New("terse", prompts.System("You are terse."))
}

func searchCall(id, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       id,
		Function: schema.FunctionCall{Name: tools.ToolSearchDocuments, Arguments: args},
	}})
}

func seededTools(t *testing.T) (*fakes.DocumentStore, []tool.BaseTool) {
	t.Helper()
	store := fakes.NewDocumentStore()
	require.NoError(t, store.Put(context.Background(), "docs", []*schema.Document{
		{ID: "1", Content: "Go was announced in 2009."},
	}))
	return store, []tool.BaseTool{tools.NewSearchDocumentsTool(store, "docs", 2)}
}

func TestAgentAnswersWithoutTools(t *testing.T) {
	m := fakes.NewChatModel("Hello there.")
	a, err := New(context.Background(), Config{Model: m, System: terseSystem()})
	require.NoError(t, err)

	req := model.Request{
		Text:    "hi",
		History: []*schema.Message{schema.UserMessage("earlier"), schema.AssistantMessage("reply", nil)},
	}
	out, err := a.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", out)

	in := m.Input(0)
	require.Len(t, in, 4)
	assert.Equal(t, schema.System, in[0].Role)
	assert.Equal(t, "earlier", in[1].Content)
	assert.Equal(t, "hi", in[3].Content)
}

func TestAgentToolLoop(t *testing.T) {
	store, ts := seededTools(t)
	m := fakes.NewChatModel().Script(
		searchCall("", `{"query":"  when was go announced "}`),
		schema.AssistantMessage("2009.", nil),
	)
	a, err := New(context.Background(), Config{Model: m, Tools: ts, System: terseSystem(), MaxToolCalls: 3})
	require.NoError(t, err)

	out, err := a.Generate(context.Background(), model.NewRequest("When was Go announced?"))
	require.NoError(t, err)
	assert.Equal(t, "2009.", out)
	assert.Equal(t, 2, m.Calls())
	assert.Equal(t, []string{"when was go announced"}, store.Queries())
	require.Len(t, m.Tools(), 1)
	assert.Equal(t, tools.ToolSearchDocuments, m.Tools()[0].Name)

	second := m.Input(1)
	last := second[len(second)-1]
	assert.Equal(t, schema.Tool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, "announced in 2009")
}

func TestAgentStopsAtToolLimit(t *testing.T) {
	_, ts := seededTools(t)
	m := fakes.NewChatModel().Script(
		searchCall("a", `{"query":"go"}`),
		searchCall("b", `{"query":"go again"}`),
	)
	a, err := New(context.Background(), Config{Model: m, Tools: ts, System: terseSystem(), MaxToolCalls: 1})
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), model.NewRequest("loop forever"))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Calls())

	var notice bool
	for _, msg := range m.Input(1) {
		if msg.Role == schema.System && strings.Contains(msg.Content, "maximum tool call limit (1)") {
			notice = true
		}
	}
	assert.True(t, notice)
}

func TestAgentModelFailure(t *testing.T) {
	a, err := New(context.Background(), Config{
		Model:     fakes.NewFailingChatModel(errors.New("unavailable")),
		ModelName: "gemini-2.5-flash",
		System:    terseSystem(),
	})
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), model.NewRequest("hi"))
	require.Error(t, err)
	assert.True(t, errx.IsUpstreamModel(err))
}

func TestNewRequiresSystemVars(t *testing.T) {
	_, err := New(context.Background(), Config{Model: fakes.NewChatModel("x")})
	require.Error(t, err)
	assert.True(t, errx.IsTemplateBinding(err))

	_, err = New(context.Background(), Config{
		Model: fakes.NewChatModel("x"),
		SystemVars: map[string]any{
			"search_tool":  tools.ToolSearchDocuments,
			"collection":   "docs",
			"weather_tool": tools.ToolGetWeather,
		},
	})
	assert.NoError(t, err)
}

func TestSanitizeArguments(t *testing.T) {
	out, err := sanitizeArguments(context.Background(), tools.ToolSearchDocuments, `{"query":"  go  ","k":" 2 "}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"go","k":2}`, out)

	out, err = sanitizeArguments(context.Background(), tools.ToolGetWeather, `{"latitude":"13.7","longitude":"east"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude":13.7}`, out)

	out, err = sanitizeArguments(context.Background(), "other", `not json`)
	require.NoError(t, err)
	assert.Equal(t, "not json", out)
}

func TestToolLimitHelpers(t *testing.T) {
	s := &State{}
	assert.False(t, checkAndMarkToolLimit(s, 2))
	assert.False(t, incrementToolCallAndCheck(s, 2))
	assert.False(t, incrementToolCallAndCheck(s, 2))
	assert.True(t, checkAndMarkToolLimit(s, 2))
	assert.False(t, checkAndMarkToolLimit(s, 2))
	assert.True(t, incrementToolCallAndCheck(s, 2))
	assert.Equal(t, DefaultMaxToolCalls, normalizeMaxToolCalls(0))
}
