package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

func (srv *HTTPServer) mapHandlers() {
	srv.registerMiddlewares()
	srv.registerSystemRoutes()
	srv.registerPipelineRoutes()
	srv.gin.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

func (srv *HTTPServer) registerMiddlewares() {
	srv.gin.Use(gin.CustomRecovery(recoverJSON))
	srv.gin.Use(requestLogger())
	if srv.limiter != nil {
		srv.gin.Use(srv.limiter.middleware())
	}
	logx.Info().
		Str("environment", srv.environment.String()).
		Str("mode", srv.mode).
		Bool("rate_limited", srv.limiter != nil).
		Msg("http middlewares registered")
}

func (srv *HTTPServer) registerSystemRoutes() {
	srv.gin.GET("/", srv.index)
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/routes", srv.listRoutes)
}

func (srv *HTTPServer) registerPipelineRoutes() {
	if srv.content != nil {
		srv.gin.GET("/chat", observe("content"), srv.routeQuery(srv.content, "prompt"))
	}
	if srv.feedback != nil {
		srv.gin.GET("/feedback", observe("feedback"), srv.routeQuery(srv.feedback, "feedback"))
	}
	if srv.conversations != nil {
		conv := srv.gin.Group("/conversations", observe("conversation"))
		conv.POST("", srv.startConversation)
		conv.POST("/:id/messages", srv.continueConversation)
		conv.GET("/:id/messages", srv.conversationHistory)
		conv.DELETE("/:id", srv.resetConversation)
	}
	if srv.agent != nil {
		srv.gin.GET("/agent", observe("agent"), srv.handleQuery(srv.agent, "query"))
	} else {
		logx.Info().Msg("agent not configured, skipping /agent route")
	}
	if srv.review != nil {
		srv.gin.GET("/review", observe("review"), srv.handleQuery(srv.review, "car"))
	}
}

type routeResponse struct {
	Response string `json:"response"`
	Label    string `json:"label"`
	Branch   string `json:"branch"`
	Fallback bool   `json:"fallback"`
}

// routeQuery dispatches the query parameter param through r.
func (srv *HTTPServer) routeQuery(r Router, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := r.Dispatch(c.Request.Context(), model.NewRequest(c.Query(param)))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, routeResponse{
			Response: res.Response,
			Label:    res.Label,
			Branch:   res.Branch,
			Fallback: res.Fallback,
		})
	}
}

type askRequest struct {
	Query string `json:"query"`
}

type conversationResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (srv *HTTPServer) startConversation(c *gin.Context) {
	srv.ask(c, "")
}

func (srv *HTTPServer) continueConversation(c *gin.Context) {
	srv.ask(c, c.Param("id"))
}

func (srv *HTTPServer) ask(c *gin.Context, conversationID string) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	answer, id, err := srv.conversations.Ask(c.Request.Context(), conversationID, req.Query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationResponse{Response: answer, ConversationID: id})
}

func (srv *HTTPServer) conversationHistory(c *gin.Context) {
	msgs, err := srv.conversations.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]historyMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		out = append(out, historyMessage{Role: string(m.Role), Content: m.Content})
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": c.Param("id"), "messages": out})
}

func (srv *HTTPServer) resetConversation(c *gin.Context) {
	if err := srv.conversations.Reset(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleQuery answers the query parameter param with h.
func (srv *HTTPServer) handleQuery(h handlers.Handler, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		answer, err := h.Generate(c.Request.Context(), model.NewRequest(c.Query(param)))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": answer})
	}
}
