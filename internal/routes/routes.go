package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/skilltrack/internal/auth"
	"github.com/BradenHooton/skilltrack/internal/handlers"
	"github.com/BradenHooton/skilltrack/internal/middleware"
	pkghttp "github.com/BradenHooton/skilltrack/pkg/http"
	"github.com/go-chi/chi/v5"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies groups everything the route table needs
type Dependencies struct {
	AuthHandler   *handlers.AuthHandler
	SkillHandler  *handlers.SkillHandler
	TokenVerifier auth.TokenVerifier
	Health        HealthChecker
	Resolver      *pkghttp.IPResolver
	RegisterLimit middleware.RateLimitConfig
	APILimit      middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", healthHandler(deps.Health))

	router.Route("/api", func(api chi.Router) {
		api.Use(middleware.RateLimitByIP(deps.APILimit, deps.Resolver))

		api.Get("/", func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteJSONValue(w, http.StatusOK, map[string]string{"message": "API is running"})
		})

		// Public auth routes
		api.With(middleware.RateLimitByIP(deps.RegisterLimit, deps.Resolver)).
			Post("/auth/register", deps.AuthHandler.Register)
		api.Post("/auth/login", deps.AuthHandler.Login)

		// Protected routes - authentication required
		api.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(deps.TokenVerifier))

			r.Get("/auth/me", deps.AuthHandler.Me)

			r.Route("/skills", func(r chi.Router) {
				r.Post("/", deps.SkillHandler.Create)
				r.Get("/", deps.SkillHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", deps.SkillHandler.Get)
					r.Put("/", deps.SkillHandler.Update)
					r.Patch("/", deps.SkillHandler.Patch)
					r.Delete("/", deps.SkillHandler.Delete)
					r.Get("/summary", deps.SkillHandler.Summary)
					r.Patch("/progress", deps.SkillHandler.UpdateProgress)

					r.Post("/logs", deps.SkillHandler.CreateLog)
					r.Get("/logs", deps.SkillHandler.ListLogs)
					r.Delete("/logs/{logId}", deps.SkillHandler.DeleteLog)
				})
			})
		})
	})
}

func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSONValue(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSONValue(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}
