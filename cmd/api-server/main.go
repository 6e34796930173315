package main

import (
	"log"

	"clai-chat/internal/api"
	"clai-chat/internal/api/router"
	"clai-chat/internal/bot"
	"clai-chat/internal/database"
	"clai-chat/internal/env"
	"clai-chat/internal/jwt"
	"clai-chat/internal/queue"
	conversationservice "clai-chat/internal/service/conversation"
	"clai-chat/internal/websocket"
)

func main() {
	env.Require(env.AWSRegion, env.UserSecretKey, env.AuthRedisURL, env.ChatRedisURL)
	jwt.Configure()
	websocket.Configure()

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	// The REST server never serves websocket traffic itself, but it still
	// carries a handler so messages posted over HTTP reach websocket rooms
	// through the redis bridge.
	hub := websocket.NewHub()
	go hub.Run()
	handler := websocket.NewHandler(hub, conversationservice.New(db, bot.FromEnv()))

	server := api.NewAPIServer(
		":82",
		queueManager,
		db,
		handler,
		router.UtilsRoutes("/api/v1"),
		router.AuthRoutes("/api/v1"),
		router.ConversationPublicRoutes("/api/v1"),
		router.ConversationDashboardRoutes("/api/v1"),
		router.LeadPublicRoutes("/api/v1"),
		router.LeadDashboardRoutes("/api/v1"),
		router.WidgetPublicRoutes("/api/v1"),
		router.OrganizationDashboardRoutes("/api/v1"),
	)

	server.Run()
}
