package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"asset-pool-backend/config"
	"asset-pool-backend/internal/mw"
)

// NewRouter creates and configures the Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	// Only the QR endpoint is cached: rendering is deterministic, while
	// device records mutate.
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", h.ListDevices)
		api.POST("/devices", h.RegisterDevice)
		api.GET("/devices/:id", h.GetDevice)
		api.PUT("/devices/:id", h.UpdateDevice)
		api.DELETE("/devices/:id", h.DeleteDevice)
		api.GET("/devices/:id/qrcode", caching, h.RenderCode)

		api.POST("/devices/:id/image", h.UploadImage)
		api.GET("/devices/:id/image", h.ViewImage)

		api.POST("/devices/:id/take", h.TakeDevice)
		api.POST("/devices/:id/release", h.ReleaseDevice)

		api.POST("/users", h.RegisterUser)
		api.GET("/users/:login/devices", h.TakenDevices)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
