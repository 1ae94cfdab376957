package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Service identity reported by the system routes.
const (
	ServiceName    = "chative-router"
	ServiceVersion = "1.0.0"
)

func (srv *HTTPServer) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Classify each request and route it to one handler. Try /chat?prompt= or /feedback?feedback=",
		"service": ServiceName,
	})
}

func (srv *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     ServiceName,
		"version":     ServiceVersion,
		"environment": srv.environment.String(),
	})
}

// listRoutes reports each router's branches in evaluation order, fallback last.
func (srv *HTTPServer) listRoutes(c *gin.Context) {
	routers := gin.H{}
	for _, r := range []Router{srv.content, srv.feedback} {
		if r != nil {
			routers[r.Name()] = r.Branches()
		}
	}
	c.JSON(http.StatusOK, gin.H{"routers": routers})
}
