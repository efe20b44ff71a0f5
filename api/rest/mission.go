package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/game/mission"
	"github.com/kasuganosora/questd/game/species"
	mw "github.com/kasuganosora/questd/middleware"
	"github.com/kasuganosora/questd/model"
	"go.uber.org/zap"
)

// MissionHandler exposes a player's missions. Every route requires Auth.
type MissionHandler struct {
	svc    *mission.Service
	logger *zap.Logger
}

// NewMissionHandler creates a MissionHandler.
func NewMissionHandler(svc *mission.Service, logger *zap.Logger) *MissionHandler {
	return &MissionHandler{svc: svc, logger: logger}
}

type assignRequest struct {
	TemplateID int64 `json:"template_id" binding:"required"`
}

type progressRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// Assign handles POST /api/missions.
func (h *MissionHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.svc.AssignMission(c.Request.Context(), mw.GetPlayerID(c), req.TemplateID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mission": m})
}

// List handles GET /api/missions?status=active,completed.
func (h *MissionHandler) List(c *gin.Context) {
	var statuses []model.MissionStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := model.MissionStatus(strings.TrimSpace(s))
			switch st {
			case model.MissionActive, model.MissionCompleted, model.MissionAbandoned:
				statuses = append(statuses, st)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(s)})
				return
			}
		}
	}
	missions, err := h.svc.GetPlayerMissions(c.Request.Context(), mw.GetPlayerID(c), statuses...)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missions": missions})
}

// Get handles GET /api/missions/:id.
func (h *MissionHandler) Get(c *gin.Context) {
	d, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d)
}

// Progress handles POST /api/missions/:id/progress.
func (h *MissionHandler) Progress(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, updated, err := h.svc.UpdateProgress(c.Request.Context(), parseID(c), req.Delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !updated {
		c.JSON(http.StatusConflict, gin.H{"error": "mission is not active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission": m})
}

// Abandon handles POST /api/missions/:id/abandon.
func (h *MissionHandler) Abandon(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	abandoned, err := h.svc.AbandonMission(c.Request.Context(), id, mw.GetPlayerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"abandoned": abandoned})
}

// Eligibility handles GET /api/missions/:id/eligibility?family=beast&ref=12.
func (h *MissionHandler) Eligibility(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	ref, err := species.ParseRef(c.Query("family") + ":" + c.Query("ref"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monster reference"})
		return
	}
	eligible, err := h.svc.CheckMonsterEligibility(c.Request.Context(), parseID(c), ref)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": eligible, "monster": ref.String()})
}

// owned loads the mission named by :id and answers 404 unless it belongs to
// the caller.
func (h *MissionHandler) owned(c *gin.Context) (*mission.Details, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	d, err := h.svc.GetMissionWithDetails(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if d.Mission.PlayerID != mw.GetPlayerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "mission not found"})
		return nil, false
	}
	return d, true
}

func (h *MissionHandler) fail(c *gin.Context, err error) {
	writeError(c, h.logger, err)
}

// writeError maps mission errors onto HTTP statuses.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, mission.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, mission.ErrPolicyViolation):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, mission.ErrInvalidDelta):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, mission.ErrTransientStore):
		logger.Warn("mission store failure", zap.String("trace_id", mw.GetTraceID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry"})
	default:
		logger.Error("mission request failed", zap.String("trace_id", mw.GetTraceID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// parseID reads :id after pathID has validated it.
func parseID(c *gin.Context) int64 {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return id
}
