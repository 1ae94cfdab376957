package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/chative-router/server/internal/app"
	"github.com/chative-router/server/internal/config"
	"github.com/chative-router/server/internal/httpserver"
	logx "github.com/chative-router/server/pkg/logger"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	port := pflag.Int("port", 0, "listen port, overrides HTTP_PORT")
	pflag.Parse()

	if err := run(*envFile, *port); err != nil {
		logx.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
	logx.Info().Msg("server stopped gracefully")
}

func run(envFile string, port int) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.HTTP.Port = port
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build pipelines: %w", err)
	}
	defer a.Close()

	srvCfg := httpserver.Config{
		Port:        cfg.HTTP.Port,
		Mode:        cfg.GinMode(),
		Environment: cfg.Env(),
		RateLimit:   cfg.HTTP.RateLimit,
		RateBurst:   cfg.HTTP.RateBurst,
		Content:     a.Content,
		Feedback:    a.Feedback,
		Agent:       a.Agent,
		Review:      a.Review,
	}
	if a.Conversations != nil {
		srvCfg.Conversations = a.Conversations
	}

	srv, err := httpserver.New(srvCfg)
	if err != nil {
		return fmt.Errorf("initialize http server: %w", err)
	}
	return srv.Run(ctx)
}
