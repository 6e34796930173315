package router

import (
	"net/http"

	"clai-chat/internal/api"
	"clai-chat/internal/api/endpoints"
	"clai-chat/internal/api/middleware"
	organizationservice "clai-chat/internal/service/organization"
)

func WidgetPublicRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := organizationservice.New(s.Database())
		widgetEndpoints := endpoints.NewWidgetEndpoints(service, prefix)

		mux.HandleFunc(prefix+"/public/widget-config", s.MakeHTTPHandleFunc(widgetEndpoints.PublicWidgetConfig))
	}
}

func OrganizationDashboardRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := organizationservice.New(s.Database())
		widgetEndpoints := endpoints.NewWidgetEndpoints(service, prefix)
		organizationEndpoints := endpoints.NewOrganizationEndpoints(service)

		mux.HandleFunc(prefix+"/chatbots", s.MakeHTTPHandleFunc(organizationEndpoints.Chatbots, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/chatbots/", s.MakeHTTPHandleFunc(widgetEndpoints.ChatbotActions, middleware.ValidateUserJWT))
	}
}
