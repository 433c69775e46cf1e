package api

import (
	"net/http"

	"tubely/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers every endpoint on router. gatherer backs /metrics;
// nil leaves the endpoint out.
func SetupRoutes(
	router *gin.Engine,
	authService service.AuthService,
	videoHandler *VideoHandler,
	gatherer prometheus.Gatherer,
) {
	authHandler := NewAuthHandler(authService)
	authMiddleware := AuthMiddleware(authService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/users", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// Public reads
		api.GET("/videos/:videoID", videoHandler.GetVideo)
		api.GET("/thumbnails/:thumbnailID", videoHandler.GetThumbnail)
	}

	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID})
		})

		protected.POST("/videos", videoHandler.CreateVideo)
		protected.GET("/videos", videoHandler.ListVideos)
		protected.DELETE("/videos/:videoID", videoHandler.DeleteVideo)

		// POST /api/videos/{videoID}/upload, multipart field "video"
		protected.POST("/videos/:videoID/upload", videoHandler.UploadVideo)
		// POST /api/thumbnail_upload/{videoID}, multipart field "thumbnail"
		protected.POST("/thumbnail_upload/:videoID", videoHandler.UploadThumbnail)
	}
}
