package routes

import (
	"socialposts/api/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "posts-api"

// NewRouter собирает gin с общими middleware и публичным API; limiter может быть nil
func NewRouter(log *zap.Logger, limiter *middleware.RateLimiter, h Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.PrometheusMiddleware(serviceName))
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	PublicApi(router, h)
	return router
}
