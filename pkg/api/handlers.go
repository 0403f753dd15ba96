package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/calltime/slate/pkg/core"
	"github.com/calltime/slate/pkg/saved"
	"github.com/calltime/slate/pkg/search"
	"github.com/calltime/slate/pkg/version"
)

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := search.ParseParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}

	// Queries below the minimum length clear the results instead of
	// searching, mirroring the live dispatcher.
	if len(strings.TrimSpace(params.Query)) < s.minQueryLength {
		s.writeJSON(w, http.StatusOK, &search.Results{
			Query:   params.Query,
			Results: []core.Result{},
			Counts:  map[core.Kind]int{},
			Limit:   params.Limit,
		})
		return
	}

	results, err := s.searcher.Search(r.Context(), params)
	if err != nil {
		// Search failures degrade to an empty result set; the panel
		// closes rather than surfacing an error state.
		s.logger.Errorf("search failed for %q: %v", params.Query, err)
		s.writeJSON(w, http.StatusOK, &search.Results{
			Query:   params.Query,
			Results: []core.Result{},
			Counts:  map[core.Kind]int{},
			Limit:   params.Limit,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) HandleListSavedSearches(w http.ResponseWriter, r *http.Request) {
	ident := saved.Identity{
		User:         r.URL.Query().Get("user"),
		Organization: r.URL.Query().Get("organization"),
	}

	searches, err := s.manager.List(r.Context(), ident)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list saved searches", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ListSavedSearchesResponse{
		SavedSearches: searches,
		Count:         len(searches),
	})
}

func (s *Server) HandleCreateSavedSearch(w http.ResponseWriter, r *http.Request) {
	var req CreateSavedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ss := &saved.SavedSearch{
		Name:           req.Name,
		Description:    req.Description,
		Query:          req.Query,
		FiltersJSON:    req.Filters,
		Scope:          saved.Scope(req.Scope),
		ProjectID:      req.ProjectID,
		Visibility:     saved.Visibility(req.Visibility),
		IsPinned:       req.IsPinned,
		CreatedBy:      req.CreatedBy,
		CreatedByEmail: req.CreatedByEmail,
		Organization:   req.Organization,
	}

	if err := s.manager.Save(r.Context(), ss); err != nil {
		if errors.Is(err, saved.ErrBlankName) {
			s.writeError(w, http.StatusUnprocessableEntity, "Invalid name", "Saved search name cannot be blank")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to save search", err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, ss)
}

// HandleGetSavedSearch is a plain read; only the load route bumps the usage
// counter.
func (s *Server) HandleGetSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ss, err := s.manager.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Saved search not found", id)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get saved search", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ss)
}

func (s *Server) HandleLoadSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	loaded, err := s.manager.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Saved search not found", id)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to load saved search", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, LoadSavedSearchResponse{
		SavedSearch: loaded.Search,
		Query:       loaded.Query,
		Filters:     loaded.Filters,
	})
}

func (s *Server) HandleDeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Deletion is irreversible, so it requires explicit confirmation.
	if r.URL.Query().Get("confirm") != "true" {
		s.writeError(w, http.StatusConflict, "Confirmation required",
			"Deleting a saved search is irreversible; pass confirm=true")
		return
	}

	err := s.manager.Delete(r.Context(), id, func(*saved.SavedSearch) bool { return true })
	if err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Saved search not found", id)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to delete saved search", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to get stats", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
