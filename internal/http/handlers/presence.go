package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type heartbeatRequest struct {
	InGame bool `json:"in_game"`
}

// Heartbeat refreshes the caller's presence record. The client sends one
// every heartbeat interval; a record older than twice that is treated as
// offline by the sweep.
func (h *Handler) Heartbeat(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req heartbeatRequest
	_ = c.ShouldBindJSON(&req) // body optional, in_game defaults to false

	h.Presence.Heartbeat(userID, getUserName(c), req.InGame)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// OnlineUsers lists everyone currently present except the caller.
func (h *Handler) OnlineUsers(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": h.Presence.ListOnline(userID)})
}

// Logout removes the caller from presence immediately instead of waiting
// for staleness.
func (h *Handler) Logout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.Presence.SetOffline(userID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
