package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pokeromcodex/server/internal/catalog"
	"github.com/pokeromcodex/server/internal/models"
)

// handleListRoms returns one page of the catalog, searched and filtered.
func (s *Server) handleListRoms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	page := intParam(q.Get("page"), 1)
	pageSize := intParam(q.Get("pageSize"), catalog.DefaultPageSize)
	filters := models.SearchFilters{
		BaseGame:   listParam(q.Get("baseGame")),
		Status:     listParam(q.Get("status")),
		Difficulty: listParam(q.Get("difficulty")),
		Features:   listParam(q.Get("features")),
	}

	var result catalog.Result
	if query == "" && filters.Empty() {
		result = s.catalog.ListPage(r.Context(), page, pageSize)
	} else {
		result = s.catalog.Search(r.Context(), query, filters, page, pageSize)
	}

	respondJSON(w, http.StatusOK, models.RomList{
		Items:      result.Items,
		TotalCount: result.Count,
	})
}

// handleGetRom returns a single rom by numeric ID. When the caller is
// signed in the response carries an in_collection flag.
func (s *Server) handleGetRom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid rom id")
		return
	}

	rom := s.catalog.GetByID(r.Context(), id)
	if rom == nil {
		respondError(w, http.StatusNotFound, "ROM not found")
		return
	}

	s.respondRom(w, r, rom)
}

// handleGetRomBySlug returns a single rom by slug.
func (s *Server) handleGetRomBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	rom := s.catalog.GetBySlug(r.Context(), slug)
	if rom == nil {
		respondError(w, http.StatusNotFound, "ROM not found")
		return
	}

	s.respondRom(w, r, rom)
}

func (s *Server) respondRom(w http.ResponseWriter, r *http.Request, rom *models.Rom) {
	inCollection := false
	if userID := s.optionalUser(r); userID != "" {
		inCollection = s.collection.IsMember(r.Context(), userID, rom.ID)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rom":           rom,
		"in_collection": inCollection,
	})
}

// handleFilterOptions returns the deduplicated facet vocabulary.
func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.FilterOptions(r.Context()))
}

func intParam(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func listParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
