package http

import (
	"github.com/gin-gonic/gin"

	"github.com/forgecrew/promptengine/internal/engine"
)

// RouterConfig configures the gin router assembled by NewRouter.
type RouterConfig struct {
	Auth            *AuthConfig
	Version, Commit string
	AllowedOrigins  []string
}

// NewRouter builds the gin.Engine serving spec.md §6's HTTP surface: a
// single execute_prompt operation plus the two operational endpoints,
// following the teacher's installMiddleware/installController split
// (internal/hivemind/router.go).
func NewRouter(e *engine.Engine, cfg RouterConfig) *gin.Engine {
	g := gin.New()
	installMiddleware(g, cfg)
	installRoutes(g, e, cfg)
	return g
}

func installMiddleware(g *gin.Engine, cfg RouterConfig) {
	g.Use(gin.Recovery())
	g.Use(corsMiddleware(cfg.AllowedOrigins))
	if cfg.Auth != nil {
		g.Use(bearerAuth(cfg.Auth))
	}
}

func installRoutes(g *gin.Engine, e *engine.Engine, cfg RouterConfig) {
	execHandler := NewExecuteHandler(e)

	g.GET("/healthz", HealthHandler)
	g.GET("/version", VersionHandler(e, cfg.Version, cfg.Commit))

	apiV1 := g.Group("/v1")
	{
		apiV1.POST("/execute", execHandler.Handle)
	}
}

// corsMiddleware is a minimal permissive-by-default CORS layer; the
// teacher's router references one under the same name but never defines
// it (internal/hivemind/router.go installMiddleware), so this fills the
// gap in its own idiom rather than leaving the call site dangling.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-Key")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
