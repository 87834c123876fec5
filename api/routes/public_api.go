package routes

import (
	"net/http"

	"socialposts/api/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers - обработчики и middleware аутентификации для публичного API
type Handlers struct {
	Auth          gin.HandlerFunc
	Posts         *handlers.PostHandlers
	Users         *handlers.AuthHandlers
	Notifications *handlers.NotificationHandlers
}

func PublicApi(router *gin.Engine, h Handlers) *gin.RouterGroup {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicEndpoints := router.Group("/api")
	{
		publicEndpoints.POST("users", h.Users.Register)
		publicEndpoints.POST("auth", h.Users.Login)
	}

	private := publicEndpoints.Group("")
	private.Use(h.Auth)
	{
		private.GET("auth", h.Users.CurrentUser)
		private.DELETE("auth", h.Users.Logout)

		// Посты
		private.POST("posts", h.Posts.CreatePost)
		private.GET("posts", h.Posts.ListPosts)
		private.GET("posts/:id", h.Posts.GetPost)
		private.DELETE("posts/:id", h.Posts.DeletePost)
		private.PUT("posts/like/:id", h.Posts.LikePost)
		private.PUT("posts/unlike/:id", h.Posts.UnlikePost)
		private.POST("posts/comment/:id", h.Posts.AddComment)

		if h.Notifications != nil {
			private.GET("ws/notifications", h.Notifications.Subscribe)
		}
	}
	return publicEndpoints
}
