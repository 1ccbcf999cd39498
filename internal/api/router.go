package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/catalog"
	"github.com/pokeromcodex/server/internal/collection"
	"github.com/pokeromcodex/server/internal/identity"
	"github.com/pokeromcodex/server/internal/imageproxy"
)

// Server holds the HTTP server dependencies
type Server struct {
	catalog    *catalog.Service
	collection *collection.Service
	identity   *identity.Service
	proxy      *imageproxy.Proxy
	ogClient   *http.Client
	log        *zap.Logger
	router     chi.Router

	allowedOrigins []string
}

// Deps bundles everything the API server needs.
type Deps struct {
	Catalog    *catalog.Service
	Collection *collection.Service
	Identity   *identity.Service
	Proxy      *imageproxy.Proxy

	// OGClient fetches cover art for social cards. Defaults to a client
	// with a short timeout.
	OGClient *http.Client

	Log            *zap.Logger
	AllowedOrigins []string
}

// New creates a new API server
func New(deps Deps) *Server {
	if deps.OGClient == nil {
		deps.OGClient = &http.Client{Timeout: 10 * time.Second}
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"http://localhost:*"}
	}
	s := &Server{
		catalog:        deps.Catalog,
		collection:     deps.Collection,
		identity:       deps.Identity,
		proxy:          deps.Proxy,
		ogClient:       deps.OGClient,
		log:            deps.Log,
		router:         chi.NewRouter(),
		allowedOrigins: deps.AllowedOrigins,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Catalog
		r.Get("/roms", s.handleListRoms)
		r.Get("/roms/{id}", s.handleGetRom)
		r.Get("/roms/slug/{slug}", s.handleGetRomBySlug)
		r.Get("/filter-options", s.handleFilterOptions)

		// Auth
		r.Post("/auth/login", s.handleLogin)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/auth/link", s.handleLink)
			r.Get("/profile", s.handleProfile)
			r.Get("/collection", s.handleGetCollection)
			r.Post("/collection/add", s.handleAddToCollection)
			r.Post("/collection/remove", s.handleRemoveFromCollection)
			r.Post("/collection/notes", s.handleUpdateNotes)
		})

		// Media
		r.Get("/og/{slug}", s.handleOGImage)
		r.Get("/image", s.handleImage)
	})

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
