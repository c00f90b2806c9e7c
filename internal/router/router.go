package router

import (
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/AIchemizt/dance-analysis-server/internal/handlers"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

// Setup wires middleware and routes. runsHandler is nil when persistence
// is disabled; the stored-run routes are simply not registered then.
func Setup(log *zap.Logger, analyzeHandler *handlers.AnalyzeHandler, runsHandler *handlers.RunsHandler) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	// Analysis is CPU-bound per request; rate limit it per client.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 30,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/", handlers.Index)
	router.GET("/health", handlers.Health)
	router.POST("/analyze", limiter, analyzeHandler.Analyze)

	if runsHandler != nil {
		analyses := router.Group("/analyses")
		{
			analyses.GET("", runsHandler.List)
			analyses.GET("/:id", runsHandler.Get)
			analyses.GET("/:id/chart", runsHandler.Chart)
		}
	}

	return router
}
