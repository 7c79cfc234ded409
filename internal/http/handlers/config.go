package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientConfig returns the timing contract clients must follow. Served
// unauthenticated so the login screen can configure itself.
func (h *Handler) ClientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"heartbeat_seconds":     int(h.Cfg.HeartbeatInterval.Seconds()),
		"challenge_ttl_seconds": int(h.Cfg.ChallengeTTL.Seconds()),
		"rematch_ttl_seconds":   int(h.Cfg.RematchTTL.Seconds()),
		"lobby_ws_ttl_seconds":  int(h.Cfg.LobbyConnTTL.Seconds()),
		"first_to_options":      []int{1, 2, 3, 5, 10, 20},
	})
}
