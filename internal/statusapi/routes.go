package statusapi

import (
	"github.com/gin-gonic/gin"
	"github.com/nat64lab/dns64ng/internal/statusapi/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nat64lab/dns64ng/internal/statusapi/docs"
)

// RegisterRoutes mounts the introspection surface on r. Every route here
// is read-only: there is no config-mutation, zone, or filtering endpoint,
// since dns64ng has none of those concerns.
func RegisterRoutes(r *gin.Engine, h *Handler, apiKey string) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	if apiKey != "" {
		api.Use(middleware.RequireAPIKey(apiKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/querylog", h.QueryLogEndpoint)
}
