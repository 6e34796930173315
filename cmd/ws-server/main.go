package main

import (
	"log"

	"clai-chat/internal/api"
	"clai-chat/internal/api/router"
	"clai-chat/internal/bot"
	"clai-chat/internal/database"
	"clai-chat/internal/env"
	"clai-chat/internal/queue"
	conversationservice "clai-chat/internal/service/conversation"
	"clai-chat/internal/websocket"
)

func main() {
	env.Require(env.AWSRegion, env.ChatRedisURL)
	websocket.Configure()

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()
	handler := websocket.NewHandler(hub, conversationservice.New(db, bot.FromEnv()))

	server := api.NewAPIServer(
		":83",
		queueManager,
		db,
		handler,
		router.UtilsRoutes("/api/ws/v1"),
		router.ConversationWebsocketRoutes("/api/ws/v1"),
	)

	server.Run()
}
