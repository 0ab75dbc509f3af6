package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"my-campaign/domain/repository"
	"my-campaign/infrastructure/realtime"
	httpHandler "my-campaign/interfaces/http"
	"my-campaign/interfaces/middleware"
)

func InitiateRouter(
	campaignHandler httpHandler.ICampaignHandler,
	healthHandler httpHandler.IHealthHandler,
	userRepository repository.IUser,
	publishHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://tulus.tech", "https://admin.tulus.tech", "http://localhost:4201", "http://localhost:4200", "https://localhost:4201", "https://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return origin == "https://tulus.tech" || origin == "https://admin.tulus.tech" || origin == "http://localhost:4201" || origin == "http://localhost:4200" || origin == "https://localhost:4201" || origin == "https://localhost:4200"
		},
		MaxAge: 12 * time.Hour,
	}))

	router.POST("/healthz", healthHandler.Health)

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	api.GET("/platforms", campaignHandler.GetPlatforms)

	campaigns := api.Group("/campaigns")
	{
		campaigns.POST("/publish", campaignHandler.PublishCampaign)
		campaigns.GET("/:campaignId/records", campaignHandler.GetRecords)
		if publishHub != nil {
			campaigns.GET("/stream", publishHub.Serve)
		}
	}

	return router
}
