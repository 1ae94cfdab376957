package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chative-router/server/internal/app"
	"github.com/chative-router/server/internal/config"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/observers"
	"github.com/chative-router/server/internal/pipeline/router"
	logx "github.com/chative-router/server/pkg/logger"
)

func main() {
	if err := run(context.Background()); err != nil {
		logx.Error().Err(err).Msg("sample run failed")
		os.Exit(1)
	}
}

// run routes a few sample inputs through both routers.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Level: cfg.LogLevel})

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build pipelines: %w", err)
	}
	defer a.Close()

	samples := []struct {
		router *router.Router
		text   string
	}{
		{a.Feedback, "This Iphone16 exceeded my expectations! The quality and performance are top-notch, and I could be happier with my purchase."},
		{a.Feedback, "The delivery took three weeks and nobody answered my emails."},
		{a.Feedback, "It works. Nothing special."},
		{a.Content, "Content about Tesla Model S?"},
		{a.Content, "What is the towing capacity of a Ford F-150?"},
	}

	for i, s := range samples {
		fmt.Printf("\nTest %d [%s]: %q\n", i+1, s.router.Name(), s.text)

		res, err := s.router.Dispatch(observers.Attach(ctx, s.router.Name()), model.NewRequest(s.text))
		if err != nil {
			return fmt.Errorf("routing test %d: %w", i+1, err)
		}
		fmt.Printf("label=%q branch=%s fallback=%t\n%s\n", res.Label, res.Branch, res.Fallback, res.Response)
	}
	return nil
}
