package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the Gin router for the read API.
func NewRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())

	router.GET("/", handler.Index)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", handler.Health)
		apiGroup.GET("/products", handler.ListProducts)
		apiGroup.GET("/products/:code", handler.GetProduct)
		apiGroup.GET("/search", handler.SearchProducts)
		apiGroup.GET("/stock/report", handler.StockReport)
		apiGroup.GET("/stock/levels", handler.StockLevels)
		apiGroup.GET("/brands", handler.Brands)
		apiGroup.GET("/stats", handler.Stats)
	}

	return router
}

// CORSMiddleware allows cross-origin reads; the API is consumed by browser
// dashboards on other origins.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
