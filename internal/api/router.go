package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the analysis endpoints, the progress stream and a health
// check onto a gin engine.
func NewRouter(h *AnalysisHandler, hub *SSEHub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.GET("/schema", h.GetSchema)
		v1.POST("/comparisons", h.CreateComparison)

		v1.POST("/analyses", h.CreateAnalysis)
		v1.GET("/analyses", h.ListAnalyses)
		v1.GET("/analyses/:id", h.GetAnalysis)
		v1.GET("/analyses/:id/models", h.GetModels)
		v1.GET("/analyses/:id/report.md", h.GetMarkdown)
		v1.GET("/analyses/:id/report.html", h.GetHTML)
		if hub != nil {
			v1.GET("/analyses/:id/events", hub.HandleSSE)
		}
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[API] %s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
