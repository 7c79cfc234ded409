package handlers

import (
	"net/http"

	"pubgames_tictactoe/internal/service"

	"github.com/gin-gonic/gin"
)

type devLoginRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// DevLogin issues a locally-signed JWT. Only available when no identity
// service is configured; with one, tokens must come from it.
func (h *Handler) DevLogin(c *gin.Context) {
	if h.Identity.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req devLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := service.GenerateJWT(req.UserID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
