package api

import (
	"errors"
	"net/http"

	"github.com/pokeromcodex/server/internal/storage"
)

type loginRequest struct {
	Provider    string `json:"provider"`
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name,omitempty"`
}

type linkRequest struct {
	Provider string `json:"provider"`
	Subject  string `json:"subject"`
}

// handleLogin exchanges a provider identity for a session token,
// creating the user on first sight.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Provider == "" || req.Subject == "" {
		respondError(w, http.StatusBadRequest, "provider and subject are required")
		return
	}

	token, user, err := s.identity.Login(r.Context(), req.Provider, req.Subject, req.DisplayName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// handleLink attaches another provider identity to the caller's account.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Provider == "" || req.Subject == "" {
		respondError(w, http.StatusBadRequest, "provider and subject are required")
		return
	}

	created, err := s.identity.Link(r.Context(), currentUser(r), req.Provider, req.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrIdentityTaken) {
			respondError(w, http.StatusConflict, "Identity is linked to another account")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to link identity")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{
		"success":        true,
		"already_linked": !created,
	})
}

// handleProfile returns the caller's user, identities and collection
// size.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	profile, err := s.identity.Profile(r.Context(), userID)
	if err != nil || profile == nil {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":             profile.User,
		"identities":       profile.Identities,
		"collection_count": s.collection.Count(r.Context(), userID),
	})
}
