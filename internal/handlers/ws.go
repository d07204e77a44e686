package handlers

import (
	"log"
	"net/http"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      WebSocket connection for campaign updates
// @Description  Connect via WebSocket to receive real-time campaign events (marker moves, tree edits, lore changes)
// @Tags         websocket
// @Param        id path string true "Campaign ID"
// @Router       /ws/campaign/{id} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	campaignID := c.Param("id")
	if campaignID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddConnection(campaignID, conn)
	defer h.hub.RemoveConnection(campaignID, conn)

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
