package handlers

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func wsUpgrader() websocket.Upgrader {
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
}

// LobbyWS upgrades to the short-lived lobby socket. Auth middleware has
// already validated the ?token= credential.
func (h *Handler) LobbyWS(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	upgrader := wsUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("ws upgrade error:", err)
		return
	}

	go h.LobbyConns.Serve(conn, userID)
}

// GameWS upgrades to the game-scoped socket. Membership and the
// one-connection-per-game rule are checked before the upgrade so rejections
// surface as plain HTTP statuses.
func (h *Handler) GameWS(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gameID, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	isMember, err := h.Authority.IsParticipant(c.Request.Context(), gameID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}
	if h.GameConns.Has(gameID, userID) {
		c.JSON(http.StatusConflict, gin.H{"error": "already connected to this game"})
		return
	}

	upgrader := wsUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("ws upgrade error:", err)
		return
	}

	go h.GameConns.Serve(conn, gameID, userID)
}
