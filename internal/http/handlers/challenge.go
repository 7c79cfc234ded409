package handlers

import (
	"net/http"
	"strconv"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/service"

	"github.com/gin-gonic/gin"
)

type createChallengeRequest struct {
	OpponentID    int64  `json:"opponent_id" binding:"required"`
	Mode          string `json:"mode"`
	MoveTimeLimit int    `json:"move_time_limit"`
	FirstTo       int    `json:"first_to"`
}

func (h *Handler) CreateChallenge(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.OpponentID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot challenge yourself"})
		return
	}

	requester := domain.User{ID: userID, Name: getUserName(c)}
	ch, err := h.Challenges.Create(c.Request.Context(), requester, req.OpponentID, service.ChallengeSettings{
		Mode:          domain.GameMode(req.Mode),
		MoveTimeLimit: req.MoveTimeLimit,
		FirstTo:       req.FirstTo,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, ch)
}

func (h *Handler) PendingChallenges(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	pending, err := h.Challenges.PendingFor(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenges": pending})
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

// RespondChallenge accepts or declines a pending challenge. Accepting
// creates the game and returns it; declining returns no game.
func (h *Handler) RespondChallenge(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	game, err := h.Challenges.Respond(c.Request.Context(), challengeID, userID, req.Accept)
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
