package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/eventhub-be/internal/api/handlers"
	"github.com/isdelr/eventhub-be/internal/auth"
	"github.com/isdelr/eventhub-be/internal/logger"
	"github.com/isdelr/eventhub-be/internal/services"
	"github.com/isdelr/eventhub-be/internal/upload"
	"github.com/isdelr/eventhub-be/internal/websocket"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Hub            *websocket.Hub
	Users          services.UserServiceProvider
	Events         services.EventServiceProvider
	Stats          services.StatsServiceProvider
	Uploader       upload.Uploader
	MaxUploadBytes int64
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.Users, d.SecureCookies)
	eventHandler := handlers.NewEventHandler(d.Events)
	uploadHandler := handlers.NewUploadHandler(d.Uploader, d.MaxUploadBytes)
	statsHandler := handlers.NewStatsHandler(d.Stats)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.Users, d.AllowedOrigins)

	requireAuth := auth.Middleware(d.Users)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connection endpoint
		r.Get("/ws", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/guest-login", userHandler.GuestLogin)
			r.With(requireAuth).Get("/check", userHandler.Check)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventHandler.GetAll)
				r.Post("/", eventHandler.Create)
				r.Get("/categories", eventHandler.Categories)
				r.Get("/calendar.ics", eventHandler.Calendar)
				r.Post("/join/{id}", eventHandler.Join)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", eventHandler.Get)
					r.Put("/", eventHandler.Update)
					r.Delete("/", eventHandler.Delete)
					r.Get("/calendar.ics", eventHandler.EventCalendar)
				})
			})

			r.Post("/upload", uploadHandler.Upload)
			r.Get("/stats", statsHandler.Get)
		})
	})

	return r
}
