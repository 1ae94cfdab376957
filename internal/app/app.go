// Package app wires the configured models, stores and pipelines together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chative-router/server/internal/config"
	"github.com/chative-router/server/internal/pipeline/agent"
	"github.com/chative-router/server/internal/pipeline/chatmodels"
	"github.com/chative-router/server/internal/pipeline/conversations"
	"github.com/chative-router/server/internal/pipeline/embedder"
	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/pipelines"
	"github.com/chative-router/server/internal/pipeline/router"
	"github.com/chative-router/server/internal/pipeline/tools"
	"github.com/chative-router/server/internal/repo"
	logx "github.com/chative-router/server/pkg/logger"
)

// App holds the constructed pipelines. Retrieval-backed pipelines are nil
// when no embedder is configured.
type App struct {
	Config *config.AppConfig

	Content       *router.Router
	Feedback      *router.Router
	Conversations *conversations.Service
	Agent         *agent.Agent
	Review        *pipelines.Review
	Store         model.DocumentStore

	redis   *redis.Client
	pg      *pgxpool.Pool
	closers []func() error
}

// Build constructs every client once and injects it where needed.
func Build(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{Config: cfg}
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	classifierModel, err := chatmodels.New(ctx, cfg.Classifier, cfg.Credentials)
	if err != nil {
		return fmt.Errorf("classifier model: %w", err)
	}
	handlerModel, err := chatmodels.New(ctx, cfg.Handler, cfg.Credentials)
	if err != nil {
		return fmt.Errorf("handler model: %w", err)
	}
	models := pipelines.Models{
		Classifier:     classifierModel,
		ClassifierName: cfg.Classifier.Model,
		Handler:        handlerModel,
		HandlerName:    cfg.Handler.Model,
	}

	if a.Content, err = pipelines.NewContentRouter(models, cfg.Router); err != nil {
		return err
	}
	if a.Feedback, err = pipelines.NewFeedbackRouter(models, cfg.Router); err != nil {
		return err
	}
	if a.Review, err = pipelines.NewReviewChain(ctx, models); err != nil {
		return err
	}

	emb, err := embedder.New(cfg.Retrieval.EmbeddingModel, cfg.Credentials)
	if err != nil {
		logx.Warn().Err(err).Msg("embedder unavailable, retrieval pipelines disabled")
	} else {
		if a.Store, err = a.OpenDocumentStore(ctx, emb); err != nil {
			return err
		}
		if err := a.buildConversations(ctx, handlerModel); err != nil {
			return err
		}
	}

	return a.buildAgent(ctx, handlerModel)
}

// OpenStore builds only the embedder and document store, for ingestion.
func OpenStore(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{Config: cfg}
	emb, err := embedder.New(cfg.Retrieval.EmbeddingModel, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	if a.Store, err = a.OpenDocumentStore(ctx, emb); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// OpenDocumentStore opens the configured document store backend.
func (a *App) OpenDocumentStore(ctx context.Context, emb embedding.Embedder) (model.DocumentStore, error) {
	switch a.Config.Retrieval.Backend {
	case config.BackendRedis:
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return repo.NewRedisDocumentStore(rdb, emb), nil
	default:
		s, err := repo.OpenSqliteDocumentStore(ctx, a.Config.Retrieval.Path, emb)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
}

func (a *App) buildConversations(ctx context.Context, m einomodel.BaseChatModel) error {
	conversationRepo, err := a.conversationRepository(ctx)
	if err != nil {
		return err
	}
	h, err := handlers.NewConversational(handlers.ConversationalConfig{
		Retrieval: handlers.RetrievalConfig{
			Store:      a.Store,
			Collection: a.Config.Retrieval.Collection,
			K:          a.Config.Retrieval.K,
			Model:      m,
			ModelName:  a.Config.Handler.Model,
		},
	})
	if err != nil {
		return err
	}
	a.Conversations = conversations.NewService(conversationRepo, h, a.Config.Conversation)
	return nil
}

func (a *App) conversationRepository(ctx context.Context) (model.ConversationRepository, error) {
	switch a.Config.Conversation.Backend {
	case config.BackendPostgres:
		if a.pg == nil {
			pool, err := a.Config.Postgres.New(ctx)
			if err != nil {
				return nil, fmt.Errorf("connect postgres: %w", err)
			}
			a.pg = pool
		}
		r := repo.NewPostgresConversationRepository(a.pg)
		if err := r.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return r, nil
	default:
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		ttl, err := a.Config.ConversationTTL()
		if err != nil {
			return nil, err
		}
		return repo.NewRedisConversationRepository(rdb, ttl), nil
	}
}

func (a *App) buildAgent(ctx context.Context, m einomodel.ToolCallingChatModel) error {
	agentTools := []tool.BaseTool{
		tools.NewWeatherTool(a.Config.Agent.WeatherBaseURL, &http.Client{Timeout: 10 * time.Second}),
	}
	if a.Store != nil {
		agentTools = append(agentTools, tools.NewSearchDocumentsTool(a.Store, a.Config.Retrieval.Collection, a.Config.Retrieval.K))
	}

	var err error
	a.Agent, err = agent.New(ctx, agent.Config{
		Model:     m,
		ModelName: a.Config.Handler.Model,
		Tools:     agentTools,
		SystemVars: map[string]any{
			"search_tool":  tools.ToolSearchDocuments,
			"weather_tool": tools.ToolGetWeather,
			"collection":   a.Config.Retrieval.Collection,
		},
		MaxToolCalls: a.Config.Agent.MaxToolCalls,
	})
	return err
}

func (a *App) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	rdb, err := a.Config.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = rdb
	return rdb, nil
}

// Close releases every client opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	if a.pg != nil {
		a.pg.Close()
		a.pg = nil
	}
	return errors.Join(errs...)
}
