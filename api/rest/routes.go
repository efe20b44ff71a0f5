package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/config"
	mw "github.com/kasuganosora/questd/middleware"
)

// Mount registers the mission and admin routes on api (normally the /api group).
func Mount(api gin.IRouter, cfg *config.Config, missions *MissionHandler, inventory *InventoryHandler, admin *AdminHandler) {
	missionsG := api.Group("/missions", mw.Auth(cfg.Security))
	{
		missionsG.POST("", missions.Assign)
		missionsG.GET("", missions.List)
		missionsG.GET("/:id", missions.Get)
		missionsG.POST("/:id/progress", missions.Progress)
		missionsG.POST("/:id/abandon", missions.Abandon)
		missionsG.GET("/:id/eligibility", missions.Eligibility)
	}

	api.GET("/inventory", mw.Auth(cfg.Security), inventory.List)

	adminG := api.Group("/admin", mw.IPWhitelist(cfg.Server.AdminAllowIPs), mw.AdminAuth(cfg.Server.AdminKey))
	{
		adminG.POST("/missions/:id/complete", admin.CompleteMission)
		adminG.POST("/catalog/reload", admin.ReloadCatalog)
		adminG.GET("/scheduler", admin.ListSchedulerTasks)
	}
}
