package websocket

import "sync"

// Hub owns the room set. Register/Unregister/Broadcast are served by the Run
// goroutine; the rooms map itself is also touched by request goroutines
// (room creation from REST handlers and joins), so it sits behind its own
// lock.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	Register   chan *WSClient
	Unregister chan *WSClient
	Broadcast  chan *RoomMessage
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		Register:   make(chan *WSClient),
		Unregister: make(chan *WSClient),
		Broadcast:  make(chan *RoomMessage),
	}
}

func (h *Hub) room(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[id]
	return room, ok
}

// createRoom adds the room if absent and reports whether it did.
func (h *Hub) createRoom(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[id]; exists {
		return false
	}
	h.rooms[id] = &Room{
		ID:      id,
		Clients: make(map[string]*WSClient),
	}
	setRooms(len(h.rooms))
	return true
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			room, ok := h.room(client.ConversationID)
			if !ok {
				continue
			}
			room.Clients[client.ID] = client
			incConnections()

		case client := <-h.Unregister:
			room, ok := h.room(client.ConversationID)
			if !ok {
				continue
			}
			if _, ok := room.Clients[client.ID]; ok {
				delete(room.Clients, client.ID)
				close(client.Message)
				decConnections()
			}

		case message := <-h.Broadcast:
			room, ok := h.room(message.ConversationID)
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range room.Clients {
				select {
				case client.Message <- message:
					delivered++
				default:
					close(client.Message)
					delete(room.Clients, client.ID)
					decConnections()
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}
		}
	}
}
