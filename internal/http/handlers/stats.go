package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pubgames_tictactoe/internal/domain"

	"github.com/gin-gonic/gin"
)

// PlayerStats returns the caller's lifetime win/loss/draw record. A player
// without finished games gets zeros, not a 404.
func (h *Handler) PlayerStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.Stats.GetByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, &domain.PlayerStats{UserID: userID, UserName: getUserName(c)})
			return
		}
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	top, err := h.Stats.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}
