package router

import (
	"net/http"

	"clai-chat/internal/api"
	"clai-chat/internal/api/endpoints"
	authservice "clai-chat/internal/service/auth"
)

func AuthRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := authservice.New(s.Database())
		authEndpoints := endpoints.NewAuthEndpoints(service)

		mux.HandleFunc(prefix+"/auth/register", s.MakeHTTPHandleFunc(authEndpoints.Register))
		mux.HandleFunc(prefix+"/auth/login", s.MakeHTTPHandleFunc(authEndpoints.Login))
		mux.HandleFunc(prefix+"/auth/refresh", s.MakeHTTPHandleFunc(authEndpoints.Refresh))
	}
}
