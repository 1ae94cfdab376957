package router

import (
	"slices"
	"strings"

	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/parsers"
	logx "github.com/chative-router/server/pkg/logger"
)

// Predicate decides whether a branch handles a request given its label.
type Predicate func(label string, req model.Request) bool

// Match modes accepted by ForMode.
const (
	MatchContains = "contains"
	MatchKeyword  = "keyword"
	MatchExact    = "exact"
)

// Contains matches when the raw label contains kw, case-sensitively.
func Contains(kw string) Predicate {
	return func(label string, _ model.Request) bool {
		return strings.Contains(label, kw)
	}
}

// Exact matches when the normalized label equals the normalized kw.
func Exact(kw string) Predicate {
	want := parsers.NormalizeLabel(kw)
	return func(label string, _ model.Request) bool {
		return parsers.NormalizeLabel(label) == want
	}
}

// Keyword matches the normalized label against kw exactly and otherwise
// accepts kw as a whole word or phrase inside the label.
func Keyword(kw string) Predicate {
	want := parsers.NormalizeLabel(kw)
	wantWords := parsers.Words(want)
	return func(label string, _ model.Request) bool {
		got := parsers.NormalizeLabel(label)
		if got == want {
			return true
		}
		if len(wantWords) == 0 {
			return false
		}
		words := parsers.Words(got)
		for i := 0; i+len(wantWords) <= len(words); i++ {
			if slices.Equal(words[i:i+len(wantWords)], wantWords) {
				logx.Debug().
					Str("label", parsers.Snippet(label)).
					Str("keyword", kw).
					Msg("label matched by containment")
				return true
			}
		}
		return false
	}
}

// AnyOf matches when any of preds matches.
func AnyOf(preds ...Predicate) Predicate {
	preds = slices.Clone(preds)
	return func(label string, req model.Request) bool {
		for _, p := range preds {
			if p != nil && p(label, req) {
				return true
			}
		}
		return false
	}
}

// ForMode builds the predicate for kw in the given match mode. Unknown modes
// fall back to Contains.
func ForMode(mode, kw string) Predicate {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case MatchExact:
		return Exact(kw)
	case MatchKeyword:
		return Keyword(kw)
	default:
		return Contains(kw)
	}
}
