package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chative-router/server/internal/pipeline/model"
)

func TestPredicates(t *testing.T) {
	req := model.NewRequest("ignored")
	tests := []struct {
		name  string
		pred  Predicate
		label string
		want  bool
	}{
		{"contains substring", Contains("positive"), "This is positive.", true},
		{"contains case sensitive", Contains("positive"), "Positive", false},
		{"contains inside word", Contains("neutral"), "nonneutrality", true},
		{"exact strips emphasis", Exact("positive"), "  **Positive.** ", true},
		{"exact quotes and punctuation", Exact("positive"), "\"Positive.\"", true},
		{"exact label prefix", Exact("FAQ"), "Label: faq", true},
		{"exact rejects extra words", Exact("positive"), "positive overall", false},
		{"keyword exact", Keyword("Content Generation"), "content generation", true},
		{"keyword whole word", Keyword("negative"), "The feedback is negative overall", true},
		{"keyword phrase", Keyword("content generation"), "This is Content Generation.", true},
		{"keyword rejects partial word", Keyword("neutral"), "nonneutral", false},
		{"keyword empty", Keyword(""), "anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred(tt.label, req))
		})
	}
}

func TestAnyOf(t *testing.T) {
	p := AnyOf(Contains("FAQ"), nil, Keyword("question"))
	req := model.NewRequest("")
	assert.True(t, p("FAQ", req))
	assert.True(t, p("a question", req))
	assert.False(t, p("content", req))
	assert.False(t, AnyOf()("FAQ", req))
}

func TestForMode(t *testing.T) {
	req := model.NewRequest("")
	assert.False(t, ForMode(MatchContains, "faq")("FAQ", req))
	assert.True(t, ForMode("KEYWORD", "faq")("It's an FAQ", req))
	assert.True(t, ForMode(MatchExact, "faq")("FAQ", req))
	assert.False(t, ForMode(MatchExact, "faq")("an FAQ", req))
	assert.True(t, ForMode("unknown", "FAQ")("an FAQ", req))
}
