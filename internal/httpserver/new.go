package httpserver

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"github.com/chative-router/server/internal/core"
	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
)

// Router is a classify-and-route pipeline exposed over HTTP.
type Router interface {
	Name() string
	Branches() []string
	Dispatch(ctx context.Context, req model.Request) (model.Result, error)
}

// Conversations answers questions within stored conversations.
type Conversations interface {
	Ask(ctx context.Context, conversationID, query string) (string, string, error)
	History(ctx context.Context, conversationID string) ([]*schema.Message, error)
	Reset(ctx context.Context, conversationID string) error
}

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	gin         *gin.Engine
	port        int
	mode        string
	environment core.Environment
	limiter     *rateLimiter

	content       Router
	feedback      Router
	conversations Conversations
	agent         handlers.Handler
	review        handlers.Handler
}

// Config is the dependency bag passed to New. Nil pipelines leave their
// routes unregistered.
type Config struct {
	Port        int
	Mode        string
	Environment core.Environment
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit float64
	RateBurst int

	Content       Router
	Feedback      Router
	Conversations Conversations
	Agent         handlers.Handler
	Review        handlers.Handler
}

// New creates a new HTTPServer instance with its routes mapped.
func New(cfg Config) (*HTTPServer, error) {
	if cfg.Mode == "" {
		cfg.Mode = cfg.Environment.GinMode()
	}
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		gin:           gin.New(),
		port:          cfg.Port,
		mode:          cfg.Mode,
		environment:   cfg.Environment,
		content:       cfg.Content,
		feedback:      cfg.Feedback,
		conversations: cfg.Conversations,
		agent:         cfg.Agent,
		review:        cfg.Review,
	}
	if cfg.RateLimit > 0 {
		srv.limiter = newRateLimiter(cfg.RateLimit, cfg.RateBurst)
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}
	srv.mapHandlers()
	return srv, nil
}

func (srv *HTTPServer) validate() error {
	if srv.port <= 0 {
		return errors.New("port is required")
	}
	if srv.content == nil && srv.feedback == nil && srv.conversations == nil && srv.agent == nil && srv.review == nil {
		return errors.New("at least one pipeline is required")
	}
	return nil
}

// Engine exposes the gin engine, mainly for tests.
func (srv *HTTPServer) Engine() *gin.Engine {
	return srv.gin
}
