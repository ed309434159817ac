package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/devhub_api/internal/sse"
	"github.com/GTDGit/devhub_api/internal/utils"
)

const defaultHeartbeat = 25 * time.Second

// SSEHandler serves the dashboard's live product feed.
type SSEHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: defaultHeartbeat}
}

// Stream handles GET /api/dashboard/stream?token=<jwt>. Browsers' EventSource
// cannot send an Authorization header, hence the query parameter.
func (h *SSEHandler) Stream(c *gin.Context) {
	claims, ok := streamClaims(c)
	if !ok {
		return
	}

	client := h.hub.Register("dashboard-" + claims.UserID + "-" + uuid.NewString())
	defer h.hub.Unregister(client)

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("connected", gin.H{"clientId": client.ID, "timestamp": time.Now().UTC().Format(time.RFC3339)})
	c.Writer.Flush()
	log.Info().Str("client_id", client.ID).Str("user_id", claims.UserID).Msg("Dashboard stream opened")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			log.Debug().Str("client_id", client.ID).Msg("Dashboard stream closed by client")
			return
		case data, open := <-client.Events:
			// closed when a newer stream for this id takes over or the hub shuts down
			if !open {
				return
			}
			c.SSEvent("product", string(data))
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339), "dropped": client.Dropped()})
		}
		c.Writer.Flush()
	}
}

// streamClaims authenticates the token query parameter and writes the error
// response itself when it fails.
func streamClaims(c *gin.Context) (*utils.Claims, bool) {
	token := c.Query("token")
	if token == "" {
		utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token query parameter")
		return nil, false
	}
	claims, err := utils.ValidateJWT(token)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return nil, false
	}
	if claims.Role != utils.RoleSuperAdmin {
		utils.Error(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
		return nil, false
	}
	return claims, true
}
