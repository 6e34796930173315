package router

import (
	"net/http"

	"clai-chat/internal/api"
	"clai-chat/internal/api/endpoints"
	"clai-chat/internal/api/middleware"
	leadservice "clai-chat/internal/service/lead"
)

func LeadPublicRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := leadservice.New(s.Database())
		leadEndpoints := endpoints.NewLeadEndpoints(service, prefix)

		mux.HandleFunc(prefix+"/public/leads", s.MakeHTTPHandleFunc(leadEndpoints.PublicLeads))
	}
}

func LeadDashboardRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := leadservice.New(s.Database())
		leadEndpoints := endpoints.NewLeadEndpoints(service, prefix)

		mux.HandleFunc(prefix+"/leads", s.MakeHTTPHandleFunc(leadEndpoints.Leads, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/leads/", s.MakeHTTPHandleFunc(leadEndpoints.LeadActions, middleware.ValidateUserJWT))
	}
}
