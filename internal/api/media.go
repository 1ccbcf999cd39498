package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pokeromcodex/server/internal/imageproxy"
	"github.com/pokeromcodex/server/internal/ogimage"
)

// handleOGImage renders the social-preview SVG card for a rom.
func (s *Server) handleOGImage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	rom := s.catalog.GetBySlug(r.Context(), slug)
	if rom == nil {
		respondError(w, http.StatusNotFound, "ROM not found")
		return
	}

	imageData := ogimage.FetchImageData(r.Context(), s.ogClient, rom.Image)
	svg := ogimage.Generate(rom, imageData)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(svg))
}

// handleImage proxies and resizes a remote image.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := imageproxy.Request{
		URL:     q.Get("url"),
		Width:   sizeParam(q.Get("width")),
		Height:  sizeParam(q.Get("height")),
		Quality: sizeParam(q.Get("quality")),
	}

	img, err := s.proxy.Get(r.Context(), req)
	if err != nil {
		if errors.Is(err, imageproxy.ErrBadURL) {
			respondError(w, http.StatusBadRequest, "Invalid image URL")
			return
		}
		respondError(w, http.StatusBadGateway, "Failed to fetch image")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(img.Data)
}

// sizeParam parses a non-negative integer query value; anything else
// reads as zero (meaning "unset").
func sizeParam(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
