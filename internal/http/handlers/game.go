package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pubgames_tictactoe/internal/domain"

	"github.com/gin-gonic/gin"
)

// ActiveGame returns the caller's current active game, if any. This is the
// reconnection entry point: the client calls it on startup and resumes the
// game it finds.
func (h *Handler) ActiveGame(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	game, err := h.Authority.ActiveFor(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"game": nil})
			return
		}
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"game": game})
}

// GameByID returns a game snapshot to one of its participants. Polling
// fallback for when the websocket is down.
func (h *Handler) GameByID(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gameID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	game, err := h.Authority.Get(c.Request.Context(), gameID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if game.PlayerNumber(userID) == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"game": game})
}

type moveRequest struct {
	GameID   int64 `json:"game_id" binding:"required"`
	Position *int  `json:"position" binding:"required"`
}

// Move applies one move. The response carries the full post-move snapshot
// so the client can reconcile even if the websocket broadcast is lost.
func (h *Handler) Move(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.Authority.ApplyMove(c.Request.Context(), req.GameID, userID, *req.Position)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History returns the caller's completed games, newest first.
func (h *Handler) History(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	games, err := h.Games.HistoryByUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": games})
}
