package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/game/item"
	mw "github.com/kasuganosora/questd/middleware"
	"go.uber.org/zap"
)

// InventoryHandler lists what mission rewards have put in a player's bag.
type InventoryHandler struct {
	inv    *item.InventoryService
	logger *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inv *item.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inv: inv, logger: logger}
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.inv.List(c.Request.Context(), mw.GetPlayerID(c))
	if err != nil {
		h.logger.Error("list inventory", zap.String("trace_id", mw.GetTraceID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": items})
}
