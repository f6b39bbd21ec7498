package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/internal/logging"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the gin engine serving /api and /healthz.
func NewRouter(eng *engine.Engine, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{Engine: eng, Logger: logger}

	r := gin.New()
	r.Use(RequestID(), AccessLog(logger), Recovery(logger), CORS(cfg.CORSOrigins))

	r.GET("/healthz", h.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/models", h.ListModels)
		apiGroup.GET("/models/:id", h.GetModel)
		apiGroup.GET("/models/:id/schema", h.ModelSchema)
		apiGroup.POST("/models/:id/predict", h.Predict)
		apiGroup.POST("/models/:id/sweep", h.Sweep)
		apiGroup.GET("/agencies", h.Agencies)
		apiGroup.GET("/services", h.Services)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API route not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
