package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dujoseaugusto/go-bolsas-crawler/api/handler"
	"github.com/dujoseaugusto/go-bolsas-crawler/api/middleware"
)

func SetupRouter(listingHandler *handler.ListingHandler, limiter *middleware.RateLimiter, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Endpoint de health check (sem rate limiting)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "go-bolsas-crawler-api",
			"version": "1.0.0",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	limited := r.Group("/")
	limited.Use(limiter.Middleware())
	{
		limited.GET("/listings", listingHandler.SearchListings)
		limited.POST("/extract", listingHandler.Extract)
	}

	return r
}
