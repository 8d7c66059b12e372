package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/mw"
	"fleet-maintenance-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options, trigger RunTrigger, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, webpushOptions, trigger)

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), 5)

	// Read endpoints only change when a run commits, so cache them.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/equipment", caching, GetEquipment(db))
		api.GET("/equipment/:equipment_id/predictions", caching, GetEquipmentPredictions(db))
		api.GET("/predictions/latest", caching, GetLatestPredictions(db))
		api.GET("/kpis", caching, GetKPIs(db))
		api.GET("/runs", caching, GetRuns(db))
		api.GET("/runs/:run_id", caching, GetRun(db))

		// A manual run commits new state, so flush the response cache
		// once the report is back.
		api.POST("/runs/trigger", func(c *gin.Context) {
			handler.TriggerRun(c)
			cacheStore.Flush()
		})

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
