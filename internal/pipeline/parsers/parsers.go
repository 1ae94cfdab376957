package parsers

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	errx "github.com/chative-router/server/internal/core/error"
	logx "github.com/chative-router/server/pkg/logger"
	"github.com/cloudwego/eino/schema"
)

// basic safety limits to avoid pathological model output
const (
	maxContentLen = 128 * 1024 // 128KB
	maxLabelLen   = 256
	maxErrSnippet = 200
)

// ExtractText returns the plain text of a model message. Reasoning content,
// tool calls and response metadata are discarded.
func ExtractText(msg *schema.Message) (string, error) {
	if msg == nil {
		return "", errx.ErrEmptyModelResponse
	}
	content := msg.Content
	if content == "" && len(msg.MultiContent) > 0 {
		var b strings.Builder
		for _, part := range msg.MultiContent {
			if part.Type == schema.ChatMessagePartTypeText {
				b.WriteString(part.Text)
			}
		}
		content = b.String()
	}
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "text_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = truncateUTF8(content, maxContentLen)
	}
	return content, nil
}

// NormalizeLabel reduces a free-text category label to a comparable form:
// markdown fences, quotes, a leading "label:" and trailing punctuation are
// removed, whitespace is collapsed and letters are lower-cased.
func NormalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLabelLen {
		s = truncateUTF8(s, maxLabelLen)
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	for _, prefix := range []string{"label:", "category:", "classification:"} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '`'
	})
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Words splits a normalized label into words for whole-word matching.
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-'
	})
}

// Snippet returns a short single-line excerpt of s for logs and errors.
func Snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxErrSnippet {
		return s
	}
	return fmt.Sprintf("%s...", truncateUTF8(s, maxErrSnippet))
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
