package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/showmanfest/luckydraw/live"
	"github.com/showmanfest/luckydraw/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The stage feed carries no sensitive data; CORS on the API side
		// is the actual access control.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeStage attaches a stage screen to the live event feed.
func (h *WebSocketHandler) ServeStage(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade stage connection: %v", err)
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: services.StageRoom,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
