package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chative-router/server/internal/pipeline/classifier"
	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/parsers"
	logx "github.com/chative-router/server/pkg/logger"
)

// FallbackEvent is logged whenever no predicate matched and the default branch ran.
const FallbackEvent = "NoRouteMatchedFallbackUsed"

// Classifier produces the category label of a request.
type Classifier interface {
	Classify(ctx context.Context, req model.Request) (string, error)
}

var _ Classifier = (*classifier.Classifier)(nil)

// Branch pairs a predicate with the handler it selects.
type Branch struct {
	Name      string
	Predicate Predicate
	Handler   handlers.Handler
}

// Router classifies a request and dispatches it to exactly one handler. The
// branch table is fixed at construction and evaluated in insertion order.
type Router struct {
	name       string
	classifier Classifier
	branches   []Branch
	fallback   Branch
}

// New builds a router. The fallback branch needs no predicate.
func New(name string, c Classifier, fallback Branch, branches ...Branch) (*Router, error) {
	if c == nil {
		return nil, errors.New("router classifier is nil")
	}
	if fallback.Handler == nil {
		return nil, errors.New("router fallback handler is nil")
	}
	if fallback.Name == "" {
		fallback.Name = "default"
	}

	seen := map[string]bool{fallback.Name: true}
	table := make([]Branch, 0, len(branches))
	for i, b := range branches {
		if strings.TrimSpace(b.Name) == "" {
			return nil, fmt.Errorf("branch %d has no name", i)
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("duplicate branch name %q", b.Name)
		}
		if b.Predicate == nil {
			return nil, fmt.Errorf("branch %q has no predicate", b.Name)
		}
		if b.Handler == nil {
			return nil, fmt.Errorf("branch %q has no handler", b.Name)
		}
		seen[b.Name] = true
		table = append(table, b)
	}

	return &Router{
		name:       name,
		classifier: c,
		branches:   table,
		fallback:   fallback,
	}, nil
}

// Name returns the router name.
func (r *Router) Name() string {
	return r.name
}

// Branches returns branch names in evaluation order, fallback last.
func (r *Router) Branches() []string {
	names := make([]string, 0, len(r.branches)+1)
	for _, b := range r.branches {
		names = append(names, b.Name)
	}
	return append(names, r.fallback.Name)
}

// Route answers text through the branch selected for its label.
func (r *Router) Route(ctx context.Context, text string) (string, error) {
	res, err := r.Dispatch(ctx, model.NewRequest(text))
	if err != nil {
		return "", err
	}
	return res.Response, nil
}

// Generate lets a router serve as the handler of another router's branch.
func (r *Router) Generate(ctx context.Context, req model.Request) (string, error) {
	res, err := r.Dispatch(ctx, req)
	if err != nil {
		return "", err
	}
	return res.Response, nil
}

// Dispatch classifies req once, selects the first matching branch or the
// fallback, and invokes that handler once. Errors are returned as-is from the
// classifier and wrapped with the branch name from the handler.
func (r *Router) Dispatch(ctx context.Context, req model.Request) (model.Result, error) {
	label, err := r.classifier.Classify(ctx, req)
	if err != nil {
		return model.Result{}, err
	}

	branch, fallback := r.selectBranch(label, req)
	var ev *zerolog.Event
	if fallback {
		ev = logx.Info().Str("event", FallbackEvent)
	} else {
		ev = logx.Debug()
	}
	ev.Str("router", r.name).
		Str("stage", model.StageDispatched.String()).
		Str("label", parsers.Snippet(label)).
		Str("branch", branch.Name).
		Msg("request dispatched")

	out, err := branch.Handler.Generate(ctx, req)
	if err != nil {
		return model.Result{}, fmt.Errorf("%s branch %q: %w", r.name, branch.Name, err)
	}
	return model.Result{
		Response: out,
		Label:    label,
		Branch:   branch.Name,
		Fallback: fallback,
	}, nil
}

func (r *Router) selectBranch(label string, req model.Request) (Branch, bool) {
	for _, b := range r.branches {
		if b.Predicate(label, req) {
			return b, false
		}
	}
	return r.fallback, true
}
