package api

import (
	"encoding/json"
	"net/http"

	"github.com/calltime/slate/pkg/log"
	"github.com/calltime/slate/pkg/saved"
	"github.com/calltime/slate/pkg/search"
	"github.com/calltime/slate/pkg/storage"
)

// Server exposes the search pipeline and saved-search manager over HTTP.
type Server struct {
	store    *storage.Store
	searcher *search.Service
	manager  *saved.Manager
	logger   *log.Logger

	// live search defaults, see live.go
	quietMs        int
	minQueryLength int
	limit          int
}

type Options struct {
	QuietMs        int
	MinQueryLength int
	Limit          int
}

func NewServer(store *storage.Store, searcher *search.Service, manager *saved.Manager, opts Options) *Server {
	return &Server{
		store:          store,
		searcher:       searcher,
		manager:        manager,
		logger:         log.ForComponent("api"),
		quietMs:        opts.QuietMs,
		minQueryLength: opts.MinQueryLength,
		limit:          opts.Limit,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
