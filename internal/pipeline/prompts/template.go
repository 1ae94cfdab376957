package prompts

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	errx "github.com/chative-router/server/internal/core/error"
)

// HistoryKey is the variable holding prior turns for templates built WithHistory.
const HistoryKey = "chat_history"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Part is one message of a template, written in FString syntax.
type Part struct {
	Role schema.RoleType
	Text string
}

func System(text string) Part { return Part{Role: schema.System, Text: text} }
func Human(text string) Part  { return Part{Role: schema.User, Text: text} }

// Template is a named chat prompt whose placeholders are checked before rendering.
type Template struct {
	name         string
	parts        []Part
	history      bool
	placeholders []string
	tpl          prompt.ChatTemplate
}

// New builds a template from ordered parts.
func New(name string, parts ...Part) *Template {
	t := &Template{name: name, parts: slices.Clone(parts)}
	t.build()
	return t
}

// WithHistory returns a copy that inserts prior turns before the last part.
func (t *Template) WithHistory() *Template {
	c := &Template{name: t.name, parts: slices.Clone(t.parts), history: true}
	c.build()
	return c
}

func (t *Template) build() {
	seen := map[string]bool{}
	t.placeholders = nil
	msgs := make([]schema.MessagesTemplate, 0, len(t.parts)+1)
	for i, p := range t.parts {
		if t.history && i == len(t.parts)-1 {
			msgs = append(msgs, schema.MessagesPlaceholder(HistoryKey, true))
		}
		msgs = append(msgs, &schema.Message{Role: p.Role, Content: p.Text})

		unescaped := strings.NewReplacer("{{", "", "}}", "").Replace(p.Text)
		for _, m := range placeholderRe.FindAllStringSubmatch(unescaped, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				t.placeholders = append(t.placeholders, m[1])
			}
		}
	}
	t.tpl = prompt.FromMessages(schema.FString, msgs...)
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// HasHistory reports whether the template expects prior turns under HistoryKey.
func (t *Template) HasHistory() bool {
	return t.history
}

// Placeholders lists the variables the template requires, in first-use order.
func (t *Template) Placeholders() []string {
	return slices.Clone(t.placeholders)
}

// Missing returns the required placeholders absent from vars.
func (t *Template) Missing(vars map[string]any) []string {
	var missing []string
	for _, p := range t.placeholders {
		if _, ok := vars[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// Format renders the template. Unresolved placeholders fail with a
// TemplateBindingError before anything is rendered.
func (t *Template) Format(ctx context.Context, vars map[string]any) ([]*schema.Message, error) {
	if missing := t.Missing(vars); len(missing) > 0 {
		return nil, errx.NewTemplateBinding(t.name, missing)
	}
	msgs, err := t.tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", t.name, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("render %s prompt: empty result", t.name)
	}
	return msgs, nil
}
