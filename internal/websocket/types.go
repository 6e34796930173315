package websocket

const (
	EventJoin    = "join"
	EventJoined  = "joined"
	EventMessage = "message"
	EventTyping  = "typing"
	EventError   = "error"
)

const (
	TypingStarted = "started"
	TypingStopped = "stopped"
)

// Envelope is the wire format shared with the widget. Every frame carries an
// event name; the remaining fields depend on the event.
type Envelope struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversation_id,omitempty"`
	Sender         string `json:"sender,omitempty"`
	Content        string `json:"content,omitempty"`
	Status         string `json:"status,omitempty"`
}

// RoomMessage is an envelope addressed to every client in a conversation room.
type RoomMessage struct {
	ConversationID string
	Envelope       Envelope
}

type Room struct {
	ID      string
	Clients map[string]*WSClient
}
