package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pubgames_tictactoe/internal/domain"

	"github.com/gin-gonic/gin"
)

type createRematchRequest struct {
	GameID int64 `json:"game_id" binding:"required"`
}

func (h *Handler) CreateRematch(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createRematchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rm, err := h.Rematches.Create(c.Request.Context(), req.GameID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, rm)
}

// GetRematch returns the latest open rematch offer for a completed game.
// Both players poll this on the game-over screen.
func (h *Handler) GetRematch(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gameID, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	rm, err := h.Rematches.Get(c.Request.Context(), gameID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"rematch": nil})
			return
		}
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rematch": rm})
}

// RespondRematch accepts or declines a rematch offer. Accepting creates a
// fresh game with the same settings and player order as the source game.
func (h *Handler) RespondRematch(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rematchID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rematch id"})
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	game, err := h.Rematches.Respond(c.Request.Context(), rematchID, userID, req.Accept)
	if err != nil {
		respondErr(c, err)
		return
	}

	if game != nil {
		c.JSON(http.StatusOK, gin.H{"accepted": true, "game": game})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": false})
}
