package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ianstrang2/matchday-system/events"
	"github.com/ianstrang2/matchday-system/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin to the dashboard host once it is fixed.
		return true
	},
}

type WebSocketHandler struct {
	hub *events.Hub
}

func NewWebSocketHandler(hub *events.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes the caller to their tenant's event room. The tenant id
// comes from the authenticated claims, never from the client, so rooms
// cannot cross tenant boundaries.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for tenant %d: %v", tenantID, err)
		return
	}

	client := &events.Client{
		Hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		TenantID: tenantID,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
