package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/cache"
	"github.com/kasuganosora/questd/config"
	mw "github.com/kasuganosora/questd/middleware"
	"go.uber.org/zap"
)

// Handler streams a player's own mission events as server-sent events.
type Handler struct {
	pubsub    cache.PubSub
	channel   string
	sec       config.SecurityConfig
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler reading from the mission event channel.
func NewHandler(pubsub cache.PubSub, channel string, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, channel: channel, sec: sec, keepalive: 30 * time.Second, logger: logger}
}

// SetKeepalive overrides the keepalive comment interval.
func (h *Handler) SetKeepalive(d time.Duration) { h.keepalive = d }

// envelope is the part of a mission event needed for routing.
type envelope struct {
	Action  string `json:"action"`
	Mission struct {
		PlayerID int64 `json:"player_id"`
	} `json:"mission"`
}

// ServeSSE handles GET /api/missions/events. EventSource cannot send
// headers, so the token may also come as ?token=<jwt>.
func (h *Handler) ServeSSE(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr, _ = strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, h.channel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"player_id\":%d}\n\n", claims.PlayerID)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Debug("sse dropped malformed event", zap.Error(err))
				continue
			}
			if env.Mission.PlayerID != claims.PlayerID {
				continue
			}
			fmt.Fprintf(c.Writer, "event: mission_%s\ndata: %s\n\n", env.Action, msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
