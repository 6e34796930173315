package widget

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

const (
	eventJoin    = "join"
	eventJoined  = "joined"
	eventMessage = "message"
	eventTyping  = "typing"
	eventError   = "error"
)

type envelope struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversation_id,omitempty"`
	Sender         string `json:"sender,omitempty"`
	Content        string `json:"content,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Realtime is the controller's view of the socket. Tests substitute a
// recording fake.
type Realtime interface {
	Connect()
	Join(conversationID string)
	Send(conversationID, content string)
	OnMessage(fn func(sender, content string))
	OnTyping(fn func(status string))
}

// Socket maintains the realtime connection. Join and Send are fire and
// forget: a call made while disconnected kicks off a reconnect but does not
// wait for it, so a frame racing the reconnect can be dropped.
type Socket struct {
	url string

	mu        sync.Mutex
	conn      *websocket.Conn
	state     ConnState
	onMessage []func(sender, content string)
	onTyping  []func(status string)

	writeMu sync.Mutex
}

func NewSocket(url string) *Socket {
	return &Socket{url: url}
}

// Connect dials asynchronously. The outcome is observable through State, not
// returned.
func (s *Socket) Connect() {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.mu.Unlock()

	go s.dial()
}

func (s *Socket) dial() {
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)

	s.mu.Lock()
	if err != nil {
		s.state = StateDisconnected
		s.mu.Unlock()
		log.Printf("widget socket: dial %s failed: %v", s.url, err)
		return
	}
	s.conn = conn
	s.state = StateConnected
	s.mu.Unlock()

	go s.readPump(conn)
}

func (s *Socket) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Socket) Join(conversationID string) {
	s.write(envelope{Event: eventJoin, ConversationID: conversationID})
}

func (s *Socket) Send(conversationID, content string) {
	s.write(envelope{
		Event:          eventMessage,
		ConversationID: conversationID,
		Sender:         "human",
		Content:        content,
	})
}

func (s *Socket) OnMessage(fn func(sender, content string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = append(s.onMessage, fn)
}

func (s *Socket) OnTyping(fn func(status string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTyping = append(s.onTyping, fn)
}

func (s *Socket) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (s *Socket) write(env envelope) {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()

	if !connected {
		s.Connect()
		s.mu.Lock()
		conn = s.conn
		s.mu.Unlock()
		if conn == nil {
			// Dropped; the reconnect was not awaited.
			return
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteJSON(env); err != nil {
		log.Printf("widget socket: write failed: %v", err)
	}
}

// readPump dispatches inbound envelopes in delivery order.
func (s *Socket) readPump(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
			s.state = StateDisconnected
		}
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("widget socket: read failed: %v", err)
			}
			return
		}

		switch env.Event {
		case eventMessage:
			s.mu.Lock()
			observers := append([]func(sender, content string){}, s.onMessage...)
			s.mu.Unlock()
			for _, fn := range observers {
				fn(env.Sender, env.Content)
			}
		case eventTyping:
			s.mu.Lock()
			observers := append([]func(status string){}, s.onTyping...)
			s.mu.Unlock()
			for _, fn := range observers {
				fn(env.Status)
			}
		case eventJoined:
			// Acknowledgment only.
		case eventError:
			log.Printf("widget socket: server error: %s", env.Content)
		}
	}
}
