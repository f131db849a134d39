package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quarrylabs/quarry-cms/internal/database"
)

// AuthHandler defines the authentication HTTP handlers, allowing the router
// to be decoupled from the concrete auth implementation.
type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	SwitchStage(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

// CollectionHandler defines the collection schema management handlers.
type CollectionHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Fields(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// ItemHandler defines the item CRUD handlers.
type ItemHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// MediaHandler defines the media management and serving handlers.
type MediaHandler interface {
	Upload(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Serve(w http.ResponseWriter, r *http.Request)
}

// Dependencies holds all injectable dependencies used by route handlers.
type Dependencies struct {
	DB             *database.DB
	DevMode        bool
	AuthHandler    AuthHandler
	AuthMiddleware func(http.Handler) http.Handler
	Collections    CollectionHandler
	Items          ItemHandler
	Media          MediaHandler
	StageList      http.HandlerFunc
	ItemHistory    http.HandlerFunc
}

// NewRouter builds the chi router with the full route tree and middleware
// stack.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(deps.DevMode))

	r.Get("/health", healthHandler(deps))

	r.Route("/api", func(r chi.Router) {
		r.Use(requireJSON)

		// Login is the only unauthenticated API route.
		r.Post("/auth/login", deps.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware)

			r.Get("/auth/me", deps.AuthHandler.Me)
			r.Post("/auth/switch-stage/{stageKey}", deps.AuthHandler.SwitchStage)

			r.Get("/stages", deps.StageList)

			r.Route("/collections", func(r chi.Router) {
				r.Get("/", deps.Collections.List)
				r.Post("/", deps.Collections.Create)

				r.Route("/{collectionID}", func(r chi.Router) {
					r.Get("/", deps.Collections.Get)
					r.Get("/fields", deps.Collections.Fields)
					r.Put("/", deps.Collections.Update)
					r.Delete("/", deps.Collections.Delete)

					r.Route("/items", func(r chi.Router) {
						r.Get("/", deps.Items.List)
						r.Post("/", deps.Items.Create)
						r.Get("/{itemID}", deps.Items.Get)
						r.Put("/{itemID}", deps.Items.Update)
						r.Delete("/{itemID}", deps.Items.Delete)
						r.Get("/{itemID}/history", deps.ItemHistory)
					})
				})
			})

			r.Route("/media", func(r chi.Router) {
				r.Post("/", deps.Media.Upload)
				r.Get("/", deps.Media.List)
				r.Get("/{mediaID}", deps.Media.Get)
				r.Delete("/{mediaID}", deps.Media.Delete)
			})
		})
	})

	// Public media serving.
	r.Get("/media/{filename}", deps.Media.Serve)

	return r
}

// corsMiddleware returns a CORS middleware configured for the application.
// In dev mode local frontend origins are allowed; in production only
// same-origin requests are permitted.
func corsMiddleware(devMode bool) func(http.Handler) http.Handler {
	var allowedOrigins []string
	if devMode {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// healthHandler returns a handler that reports the health status of the
// application, including a database connectivity check.
func healthHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(r.Context()); err != nil {
			Error(w, http.StatusServiceUnavailable, "DB_UNHEALTHY", "database health check failed", nil)
			return
		}
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
