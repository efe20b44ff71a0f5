package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/game/mission"
	"github.com/kasuganosora/questd/scheduler"
	"go.uber.org/zap"
)

// ReloadFn re-imports the data files and drops cached catalog entries.
type ReloadFn func(ctx context.Context) error

// AdminHandler handles operator endpoints. Routes should be protected by
// middleware.AdminAuth.
type AdminHandler struct {
	svc    *mission.Service
	sched  *scheduler.Scheduler
	reload ReloadFn
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc *mission.Service, sched *scheduler.Scheduler, reload ReloadFn, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, sched: sched, reload: reload, logger: logger}
}

// CompleteMission force-completes an active mission and grants its rewards.
// POST /api/admin/missions/:id/complete
func (h *AdminHandler) CompleteMission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, completed, err := h.svc.CompleteMission(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if completed {
		h.logger.Info("admin completed mission", zap.Int64("mission_id", id))
	}
	c.JSON(http.StatusOK, gin.H{"completed": completed, "mission": m})
}

// ReloadCatalog re-imports Missions.json, Items.json and Species.json.
// POST /api/admin/catalog/reload
func (h *AdminHandler) ReloadCatalog(c *gin.Context) {
	if h.reload == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reload not configured"})
		return
	}
	if err := h.reload(c.Request.Context()); err != nil {
		h.logger.Error("catalog reload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListSchedulerTasks returns every periodic task with its last outcome.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}
