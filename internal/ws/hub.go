package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans out campaign events (marker moves, tree edits, lore changes) to
// every client subscribed to that campaign.
type Hub struct {
	mu        sync.RWMutex
	campaigns map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		campaigns: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(campaignID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.campaigns[campaignID] == nil {
		h.campaigns[campaignID] = make(map[*websocket.Conn]bool)
	}
	h.campaigns[campaignID][conn] = true
	log.Printf("ws: client connected to campaign %s (total: %d)", campaignID, len(h.campaigns[campaignID]))
}

func (h *Hub) RemoveConnection(campaignID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.campaigns[campaignID]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.campaigns, campaignID)
		}
		log.Printf("ws: client disconnected from campaign %s", campaignID)
	}
}

func (h *Hub) Broadcast(campaignID string, message WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.campaigns[campaignID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(conns, conn)
		}
	}
}
