package router

import (
	"net/http"
	"strings"

	"clai-chat/internal/api"
	"clai-chat/internal/api/endpoints"
	"clai-chat/internal/api/middleware"
	"clai-chat/internal/bot"
	conversationservice "clai-chat/internal/service/conversation"
)

func ConversationPublicRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := conversationservice.New(s.Database(), bot.FromEnv())
		base := strings.TrimRight(prefix, "/")
		convEndpoints := endpoints.NewConversationEndpointsWithPaths(service, s.Handler(), endpoints.ConversationPaths{
			PublicConversationsPath:   base + "/public/conversations",
			PublicConversationsPrefix: base + "/public/conversations/",
		})

		mux.HandleFunc(prefix+"/public/conversations", s.MakeHTTPHandleFunc(convEndpoints.PublicConversations))
		mux.HandleFunc(prefix+"/public/conversations/", s.MakeHTTPHandleFunc(convEndpoints.PublicConversationActions))
	}
}

func ConversationDashboardRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := conversationservice.New(s.Database(), bot.FromEnv())
		base := strings.TrimRight(prefix, "/")
		convEndpoints := endpoints.NewConversationEndpointsWithPaths(service, s.Handler(), endpoints.ConversationPaths{
			ConversationsPath:   base + "/conversations",
			ConversationsPrefix: base + "/conversations/",
		})

		mux.HandleFunc(prefix+"/conversations", s.MakeHTTPHandleFunc(convEndpoints.Conversations, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/conversations/", s.MakeHTTPHandleFunc(convEndpoints.ConversationMessages, middleware.ValidateUserJWT))
	}
}

func ConversationWebsocketRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		mux.Handle(prefix+"/ws", s.Handler())
	}
}
