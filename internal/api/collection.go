package api

import (
	"net/http"
)

type collectionRequest struct {
	RomID int64  `json:"rom_id"`
	Notes string `json:"notes,omitempty"`
}

// handleGetCollection returns the caller's collection, newest first.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	items := s.collection.ListForUser(r.Context(), userID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":       items,
		"total_count": len(items),
	})
}

// handleAddToCollection saves a rom into the caller's collection. A
// duplicate add is reported as success with already_exists set.
func (s *Server) handleAddToCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RomID <= 0 {
		respondError(w, http.StatusBadRequest, "rom_id is required")
		return
	}

	result := s.collection.Add(r.Context(), currentUser(r), req.RomID)
	if !result.Success {
		respondError(w, http.StatusInternalServerError, "Failed to add ROM to collection")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleRemoveFromCollection drops a rom from the caller's collection.
func (s *Server) handleRemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RomID <= 0 {
		respondError(w, http.StatusBadRequest, "rom_id is required")
		return
	}

	result := s.collection.Remove(r.Context(), currentUser(r), req.RomID)
	if !result.Success {
		respondError(w, http.StatusInternalServerError, "Failed to remove ROM from collection")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleUpdateNotes replaces the notes on a collection entry.
func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RomID <= 0 {
		respondError(w, http.StatusBadRequest, "rom_id is required")
		return
	}

	if !s.collection.UpdateNotes(r.Context(), currentUser(r), req.RomID, req.Notes) {
		respondError(w, http.StatusNotFound, "ROM is not in your collection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
