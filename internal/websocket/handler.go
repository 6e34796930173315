package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"clai-chat/internal/env"
	"clai-chat/internal/service/conversation"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	upgrader    websocket.Upgrader
	redisClient *redis.Client
)

func init() {
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Configure creates the redis client used to fan messages out across server
// instances. Server binaries call this once at startup.
func Configure() {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     env.Get(env.ChatRedisURL),
		Password: env.Get(env.ChatRedisPass),
		DB:       0,
	})
}

type Handler struct {
	hub           *Hub
	redisClient   *redis.Client
	conversations *conversation.Service
}

func NewHandler(h *Hub, conversations *conversation.Service) *Handler {
	return &Handler{
		hub:           h,
		redisClient:   redisClient,
		conversations: conversations,
	}
}

// ServeHTTP upgrades the connection and starts the client pumps. The client
// joins a conversation room with its first join envelope.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cl := &WSClient{
		Conn:    conn,
		Message: make(chan *RoomMessage, 10),
		ID:      uuid.NewString(),
		done:    make(chan struct{}),
	}

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h)
}

func (h *Handler) handleEnvelope(cl *WSClient, envelope Envelope) {
	switch envelope.Event {
	case EventJoin:
		h.handleJoin(cl, envelope)
	case EventMessage:
		h.handleMessage(cl, envelope)
	case EventTyping:
		h.handleTyping(cl, envelope)
	default:
		cl.send(Envelope{Event: EventError, Content: "unknown event"})
	}
}

func (h *Handler) handleJoin(cl *WSClient, envelope Envelope) {
	if envelope.ConversationID == "" {
		cl.send(Envelope{Event: EventError, Content: "conversation_id is required"})
		return
	}

	h.CreateRoom(envelope.ConversationID)
	cl.ConversationID = envelope.ConversationID
	h.hub.Register <- cl

	cl.send(Envelope{
		Event:          EventJoined,
		ConversationID: envelope.ConversationID,
	})
}

// handleMessage relays the visitor message to the room, then produces the bot
// reply with typing markers around the processing window.
func (h *Handler) handleMessage(cl *WSClient, envelope Envelope) {
	if cl.ConversationID == "" {
		cl.send(Envelope{Event: EventError, Content: "join a conversation first"})
		return
	}
	if envelope.Content == "" {
		return
	}

	h.broadcast(Envelope{
		Event:          EventMessage,
		ConversationID: cl.ConversationID,
		Sender:         "human",
		Content:        envelope.Content,
	})

	go h.respond(cl.ConversationID, envelope.Content)
}

func (h *Handler) respond(conversationID, content string) {
	h.broadcast(Envelope{
		Event:          EventTyping,
		ConversationID: conversationID,
		Status:         TypingStarted,
	})
	defer h.broadcast(Envelope{
		Event:          EventTyping,
		ConversationID: conversationID,
		Status:         TypingStopped,
	})

	result, err := h.conversations.ProcessMessage(context.Background(), conversationID, content)
	if err != nil {
		log.Printf("Error processing message for conversation %s: %v", conversationID, err)
		h.broadcast(Envelope{
			Event:          EventError,
			ConversationID: conversationID,
			Content:        "failed to process message",
		})
		return
	}

	h.broadcast(Envelope{
		Event:          EventMessage,
		ConversationID: conversationID,
		Sender:         result.Bot.Sender,
		Content:        result.Bot.Content,
	})
}

// Notify pushes an envelope into a conversation room. REST handlers use this
// so widgets connected over websocket see messages posted over HTTP.
func (h *Handler) Notify(envelope Envelope) {
	if _, exists := h.hub.room(envelope.ConversationID); !exists && h.redisClient == nil {
		return
	}
	h.broadcast(envelope)
}

// handleTyping relays visitor typing status to the rest of the room.
func (h *Handler) handleTyping(cl *WSClient, envelope Envelope) {
	if cl.ConversationID == "" {
		return
	}
	if envelope.Status != TypingStarted && envelope.Status != TypingStopped {
		return
	}

	h.broadcast(Envelope{
		Event:          EventTyping,
		ConversationID: cl.ConversationID,
		Sender:         "human",
		Status:         envelope.Status,
	})
}

// broadcast routes an envelope to the conversation room. With redis
// configured the envelope goes through pub/sub, so every server instance
// (this one included) delivers it via its room subscription; without redis it
// goes straight to the local hub.
func (h *Handler) broadcast(envelope Envelope) {
	if h.redisClient != nil {
		payload, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("Error marshaling envelope for redis: %v", err)
			return
		}
		if err := h.redisClient.Publish(context.Background(), envelope.ConversationID, payload).Err(); err != nil {
			log.Printf("Error publishing to redis channel %s: %v", envelope.ConversationID, err)
		}
		return
	}

	h.hub.Broadcast <- &RoomMessage{
		ConversationID: envelope.ConversationID,
		Envelope:       envelope,
	}
}

func (h *Handler) subscribeToRoomChannel(conversationID string) {
	if h.redisClient == nil {
		return
	}
	if _, exists := h.hub.room(conversationID); !exists {
		log.Printf("Room %s not found for subscription", conversationID)
		return
	}

	subscriber := h.redisClient.Subscribe(context.Background(), conversationID)
	defer subscriber.Close()

	ch := subscriber.Channel()
	for msg := range ch {
		var envelope Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("Error decoding redis payload on channel %s: %v", conversationID, err)
			continue
		}

		h.hub.Broadcast <- &RoomMessage{
			ConversationID: conversationID,
			Envelope:       envelope,
		}
	}
}

func (h *Handler) CreateRoom(id string) {
	if !h.hub.createRoom(id) {
		return
	}

	go h.subscribeToRoomChannel(id)
}
