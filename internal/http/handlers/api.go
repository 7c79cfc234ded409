package handlers

import (
	"errors"
	"net/http"

	"pubgames_tictactoe/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondErr maps domain errors onto HTTP statuses. Rule violations are
// 400s, ownership problems 403s, lost races 409s.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
	case errors.Is(err, domain.ErrNotYourTurn):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not your turn"})
	case errors.Is(err, domain.ErrCellOccupied):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cell occupied"})
	case errors.Is(err, domain.ErrBadPosition):
		c.JSON(http.StatusBadRequest, gin.H{"error": "position out of range"})
	case errors.Is(err, domain.ErrNotActive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "game is not active"})
	case errors.Is(err, domain.ErrNotCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "game is not completed"})
	case errors.Is(err, domain.ErrInvalidFirstTo):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid first_to value"})
	case errors.Is(err, domain.ErrOpponentOffline):
		c.JSON(http.StatusConflict, gin.H{"error": "opponent is not available"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting game or challenge exists"})
	case errors.Is(err, domain.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "already resolved"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
