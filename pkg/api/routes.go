package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/search/live", s.HandleLiveSearch)
	mux.HandleFunc("GET /api/saved", s.HandleListSavedSearches)
	mux.HandleFunc("POST /api/saved", s.HandleCreateSavedSearch)
	mux.HandleFunc("GET /api/saved/{id}", s.HandleGetSavedSearch)
	mux.HandleFunc("POST /api/saved/{id}/load", s.HandleLoadSavedSearch)
	mux.HandleFunc("DELETE /api/saved/{id}", s.HandleDeleteSavedSearch)
	mux.HandleFunc("GET /api/stats", s.HandleStats)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
