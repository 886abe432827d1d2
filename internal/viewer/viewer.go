// Package viewer is the read-only HTTP gateway the web visualization
// client consumes. It only ever calls the graph manager's query
// operations; all mutations go through the MCP tool surface.
package viewer

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memory-graph-mcp/internal/graph"
	kgerrors "memory-graph-mcp/pkg/errors"
	"memory-graph-mcp/pkg/logger"
)

// Server serves graph data to the web viewer frontend.
type Server struct {
	graph *graph.Manager
	log   *zap.Logger
}

// New creates a viewer server over the given manager.
func New(mgr *graph.Manager) *Server {
	return &Server{graph: mgr, log: logger.Get().Named("viewer")}
}

// Router builds the gin router with all viewer routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery(), cors())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/graph", s.handleGraph)
		api.GET("/search", s.handleSearch)
		api.GET("/nodes/:name/relations", s.handleNodeRelations)
		api.GET("/nodes/:name/neighborhood", s.handleNeighborhood)
		api.GET("/types", s.handleTypes)
		api.GET("/stats", s.handleStats)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.graph.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"entityCount":   stats.EntityCount,
		"relationCount": stats.RelationCount,
	})
}

func (s *Server) handleGraph(c *gin.Context) {
	g, err := s.graph.ReadGraph()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleSearch(c *gin.Context) {
	result, err := s.graph.SearchGraph(c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleNodeRelations(c *gin.Context) {
	result, err := s.graph.GetNodeRelations(c.Param("name"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleNeighborhood(c *gin.Context) {
	depth, _ := strconv.Atoi(c.Query("depth"))
	result, err := s.graph.GetNeighborhood(c.Param("name"), depth)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTypes(c *gin.Context) {
	listing, err := s.graph.ListTypes(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.graph.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) renderError(c *gin.Context, err error) {
	var notFound *kgerrors.EntityNotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// cors allows the viewer frontend to be served from any origin; the
// gateway is read-only so the usual mutation concerns do not apply.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
