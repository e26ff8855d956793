package handlers

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every route handler of the Record Store.
type Handlers struct {
	Health    *HealthHandler
	Permits   *PermitHandler
	Fires     *FireHandler
	Dashboard *DashboardHandler
}

// RegisterRoutes mounts the Record Store API on router.
func RegisterRoutes(router gin.IRouter, h Handlers) {
	if h.Health != nil {
		router.GET("/health", h.Health.Health)
		router.GET("/health/ready", h.Health.Ready)
		router.GET("/api/v1/info", h.Health.Info)
	}

	api := router.Group("/api")

	if h.Fires != nil {
		fires := api.Group("/firecases")
		{
			fires.GET("/getFire", h.Fires.List)
			fires.POST("/createFire", h.Fires.Create)
			fires.PUT("/updateFire/:id", h.Fires.Update)
			fires.DELETE("/deleteFire/:id", h.Fires.Delete)
			fires.GET("/analytics", h.Fires.Analytics)
		}
	}

	if h.Dashboard != nil {
		api.GET("/dashboard/stats", h.Dashboard.Stats)
	}

	if h.Permits != nil {
		permits := api.Group("/:type")
		{
			permits.GET("/GetPermit", h.Permits.List)
			permits.GET("/search", h.Permits.Search)
			permits.GET("/export", h.Permits.Export)
			permits.POST("/CreatePermit", h.Permits.Create)
			permits.PUT("/UpdatePermit/:id", h.Permits.Update)
			permits.PUT("/UpdateStatus/:id", h.Permits.UpdateStatus)
			permits.PUT("/UpdatePaymentStatus/:id", h.Permits.UpdatePayment)
			permits.DELETE("/DeletePermit/:id", h.Permits.Delete)
		}
	}
}
