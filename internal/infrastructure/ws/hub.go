package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS middleware
	},
}

// Hub fans every envelope arriving from the bus out to all connected
// gateway clients. It carries raw bytes: the envelope is already
// serialized by the publisher and is forwarded untouched.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for cl := range h.clients {
				close(cl.send)
				delete(h.clients, cl)
			}
			return

		case cl := <-h.register:
			h.clients[cl] = struct{}{}

		case cl := <-h.unregister:
			if _, ok := h.clients[cl]; ok {
				close(cl.send)
				delete(h.clients, cl)
			}

		case payload := <-h.broadcast:
			for cl := range h.clients {
				select {
				case cl.send <- payload:
				default:
					// Slow client: drop it rather than stall the hub.
					close(cl.send)
					delete(h.clients, cl)
				}
			}
		}
	}
}

func (h *Hub) Broadcast() chan<- []byte {
	return h.broadcast
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	client := newClient(conn)
	h.register <- client

	go client.writeLoop()
	go client.readLoop(h)
}
