package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/tradeezy-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/tradeezy-assistant/internal/http/middleware"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Chat               *handlers.ChatHandler
	Tools              *handlers.ToolHandler
	Portal             *handlers.PortalHandler
	Services           *handlers.ServicesHandler
	Account            *handlers.AccountHandler
	PortalJWTSecret    string
	ChatLimiter        *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Chat != nil {
		chat := r.With()
		if cfg.ChatLimiter != nil {
			chat = r.With(httpmiddleware.RateLimit(cfg.ChatLimiter))
		}
		chat.Post("/chat", cfg.Chat.Chat)
	}

	// Tool endpoints
	if cfg.Tools != nil {
		r.Post("/getBusinessServices", cfg.Tools.GetBusinessServices)
		r.Post("/checkSlot", cfg.Tools.CheckSlot)
		r.Post("/bookSlot", cfg.Tools.BookSlot)
		r.Post("/create_or_update_user", cfg.Tools.CreateOrUpdateUser)
	}

	// Client portal
	if cfg.Portal != nil || cfg.Services != nil || cfg.Account != nil {
		r.Group(func(portal chi.Router) {
			portal.Use(httpmiddleware.PortalJWT(cfg.PortalJWTSecret))
			if cfg.Portal != nil {
				portal.Get("/chathistory", cfg.Portal.ChatHistory)
				portal.Get("/bookings", cfg.Portal.Bookings)
			}
			if cfg.Services != nil {
				portal.Get("/services", cfg.Services.List)
				portal.Post("/services", cfg.Services.Create)
				portal.Put("/services", cfg.Services.Update)
				portal.Delete("/services", cfg.Services.Delete)
			}
			if cfg.Account != nil {
				portal.Get("/account", cfg.Account.Get)
				portal.Post("/account", cfg.Account.Save)
				portal.Delete("/account", cfg.Account.Delete)
			}
		})
	}

	return r
}
