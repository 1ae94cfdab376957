package pipelines

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/prompts"
)

const (
	ReviewChain = "review"

	reviewPros = "pros"
	reviewCons = "cons"
)

// Review lists the features of a car, analyses their pros and cons in
// parallel and joins both analyses into one review.
type Review struct {
	runnable  compose.Runnable[model.Request, string]
	modelName string
}

var _ handlers.Handler = (*Review)(nil)

// NewReviewChain builds the review chain. Every step uses the handler model.
func NewReviewChain(ctx context.Context, m Models) (*Review, error) {
	features, err := m.newHandler(prompts.CarFeatures(), prompts.KeyCar)
	if err != nil {
		return nil, err
	}
	pros, err := m.newHandler(prompts.ProsAnalysis(), prompts.KeyFeatures)
	if err != nil {
		return nil, err
	}
	cons, err := m.newHandler(prompts.ConsAnalysis(), prompts.KeyFeatures)
	if err != nil {
		return nil, err
	}

	parallel := compose.NewParallel().
		AddLambda(reviewPros, compose.InvokableLambda(analyse(pros))).
		AddLambda(reviewCons, compose.InvokableLambda(analyse(cons)))

	chain := compose.NewChain[model.Request, string]()
	chain.
		AppendLambda(compose.InvokableLambda(features.Generate), compose.WithNodeName("features")).
		AppendParallel(parallel).
		AppendLambda(compose.InvokableLambda(combineReview), compose.WithNodeName("combine"))

	runnable, err := chain.Compile(ctx, compose.WithGraphName(ReviewChain))
	if err != nil {
		return nil, fmt.Errorf("compile review chain: %w", err)
	}
	return &Review{runnable: runnable, modelName: m.HandlerName}, nil
}

// analyse feeds the feature list to h as its request text.
func analyse(h handlers.Handler) func(ctx context.Context, features string) (string, error) {
	return func(ctx context.Context, features string) (string, error) {
		return h.Generate(ctx, model.NewRequest(features))
	}
}

func combineReview(_ context.Context, branches map[string]any) (string, error) {
	pros, ok := branches[reviewPros].(string)
	if !ok {
		return "", fmt.Errorf("review branch %q returned %T", reviewPros, branches[reviewPros])
	}
	cons, ok := branches[reviewCons].(string)
	if !ok {
		return "", fmt.Errorf("review branch %q returned %T", reviewCons, branches[reviewCons])
	}
	return "Pros: " + pros + "\n\nCons: " + cons, nil
}

// Generate reviews the car named by req.Text.
func (r *Review) Generate(ctx context.Context, req model.Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", errx.EmptyRequest()
	}
	out, err := r.runnable.Invoke(ctx, req)
	if err != nil {
		if errx.IsTemplateBinding(err) || errx.IsUpstreamModel(err) || errors.Is(err, errx.ErrEmptyRequest) {
			return "", err
		}
		return "", errx.WrapModel(r.modelName, model.StageDispatched.String(), err)
	}
	return out, nil
}
