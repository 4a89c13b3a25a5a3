package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/arlo/crewdeck/internal/api/handlers"
	"github.com/arlo/crewdeck/internal/api/middleware"
	"github.com/arlo/crewdeck/internal/auth"
	"github.com/arlo/crewdeck/internal/invites"
	"github.com/arlo/crewdeck/internal/notifications"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/arlo/crewdeck/internal/projects"
	"github.com/arlo/crewdeck/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize services
	orgService := orgs.NewService(cfg.DB, cfg.Logger)
	userService := users.NewService(cfg.DB)
	notificationService := notifications.NewService(cfg.DB)
	inviteService := invites.NewService(cfg.DB, orgService, userService, cfg.AsynqClient, cfg.Logger)
	projectService := projects.NewService(cfg.DB, orgService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	orgHandler := handlers.NewOrgHandler(orgService)
	memberHandler := handlers.NewMemberHandler(orgService, inviteService)
	projectHandler := handlers.NewProjectHandler(projectService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			// User endpoints
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				userID := middleware.GetUserID(r.Context())
				user, err := cfg.AuthService.GetUserByID(r.Context(), userID)
				if err != nil {
					http.Error(w, "User not found", http.StatusNotFound)
					return
				}
				writeJSON(w, http.StatusOK, user)
			})

			// Organization endpoints
			r.Route("/orgs", func(r chi.Router) {
				r.Get("/", orgHandler.List)
				r.Post("/", orgHandler.Create)

				r.Route("/{orgID}", func(r chi.Router) {
					r.Get("/", orgHandler.Get)
					r.Put("/", orgHandler.Update)
					r.Delete("/", orgHandler.Delete)

					r.Post("/invites", memberHandler.Invite)
					r.Post("/invites/accept", memberHandler.AcceptInvite)

					r.Route("/members", func(r chi.Router) {
						r.Get("/", memberHandler.List)
						r.Post("/by-email", memberHandler.ByEmail)
						r.Get("/{memberID}", memberHandler.Get)
						r.Put("/{memberID}", memberHandler.Upsert)
						r.Delete("/{memberID}", memberHandler.Remove)
					})

					r.Route("/projects", func(r chi.Router) {
						r.Get("/", projectHandler.ListForOrg)
						r.Post("/", projectHandler.Create)
					})
				})
			})

			// Project endpoints
			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Put("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", projectHandler.Members)
					r.Put("/{memberID}", projectHandler.UpsertMember)
					r.Delete("/{memberID}", projectHandler.RemoveMember)
				})
			})

			// Notification endpoints
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/{notificationID}", notificationHandler.Get)
				r.Put("/{notificationID}/unread", notificationHandler.SetUnread)
				r.Delete("/{notificationID}", notificationHandler.Delete)
			})
		})
	})

	return &Router{r}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
