package handlers

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/paulmach/orb"

	"roadmap-planner/sim"
)

// Hub fans world messages out to every connected websocket client
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan sim.Message
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	quit       chan struct{}
	once       sync.Once
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan sim.Message, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop until Stop; call it once in its own goroutine
func (h *Hub) Start() {
	for {
		select {
		case <-h.quit:
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			log.Printf("🔌 Client connected (%s)\n", conn.RemoteAddr())

		case conn := <-h.unregister:
			h.remove(conn)

		case message := <-h.broadcast:
			h.handleBroadcast(message)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
		log.Printf("🔌 Client disconnected (%s)\n", conn.RemoteAddr())
	}
}

// handleBroadcast runs on the hub loop, so failed connections are removed
// directly instead of through the unregister channel
func (h *Hub) handleBroadcast(message sim.Message) {
	h.mutex.RLock()
	var failed []*websocket.Conn
	for conn := range h.clients {
		if err := conn.WriteJSON(message); err != nil {
			log.Printf("❌ Send failed (%s): %v\n", conn.RemoteAddr(), err)
			failed = append(failed, conn)
		}
	}
	h.mutex.RUnlock()

	for _, conn := range failed {
		h.remove(conn)
	}
}

// Stop ends the hub loop
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.quit) })
}

// BroadcastMessage queues msg for every client. When the queue is full the
// message is dropped so a slow client never stalls the world loop.
func (h *Hub) BroadcastMessage(msg sim.Message) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleSimWebSocket streams world messages to the client. Clients may send
// goal messages to move the player.
func (s *Server) HandleSimWebSocket(c *websocket.Conn) {
	// the hub writes to registered connections, so the greeting goes out
	// first; a connection has one writer at a time
	if err := c.WriteJSON(statusMessage(s.world.Status())); err != nil {
		log.Printf("⚠️  Websocket greeting failed: %v\n", err)
		return
	}

	s.hub.register <- c
	defer func() {
		s.hub.unregister <- c
	}()

	for {
		var msg sim.Message
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("⚠️  Websocket read error: %v\n", err)
			break
		}

		switch msg.Type {
		case sim.MessageTypeGoal:
			goal, hidden, ok := parseGoal(msg.Data)
			if !ok || s.checkGoal(goal) != "" {
				log.Printf("⚠️  Ignoring invalid goal message: %+v\n", msg.Data)
				continue
			}
			s.world.SetGoal(goal, hidden)
		default:
			log.Printf("⚠️  Unknown message type: %s\n", msg.Type)
		}
	}
}

func statusMessage(status sim.Status) sim.Message {
	return sim.Message{
		Type:      sim.MessageTypeStatus,
		Data:      status,
		Timestamp: time.Now().UnixMilli(),
	}
}

func parseGoal(data interface{}) (orb.Point, bool, bool) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return orb.Point{}, false, false
	}
	x, okX := m["x"].(float64)
	y, okY := m["y"].(float64)
	if !okX || !okY {
		return orb.Point{}, false, false
	}
	hidden, _ := m["hidden"].(bool)
	return orb.Point{x, y}, hidden, true
}
