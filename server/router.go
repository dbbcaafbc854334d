package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"crossposter/infrastructure/realtime"
	httpHandler "crossposter/interfaces/http"
	"crossposter/interfaces/middleware"
)

func InitiateRouter(
	healthHandler httpHandler.IHealthHandler,
	statusHandler httpHandler.IStatusHandler,
	crosspostHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "https://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthHandler.Health)

	api := router.Group("api")
	api.Use(middleware.Auth())

	api.GET("/posts", statusHandler.RecentPosts)
	api.GET("/posts/:message_id", statusHandler.PostStatus)
	if crosspostHub != nil {
		api.GET("/posts/stream", crosspostHub.Serve)
	}

	return router
}
