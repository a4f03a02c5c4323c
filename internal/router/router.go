package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/verisys/go-auth-starter/config"
	"github.com/verisys/go-auth-starter/internal/api/auth"
	"github.com/verisys/go-auth-starter/internal/container"
)

// Setup mounts the full API surface on a fresh chi router. The authentication
// gate only attaches identity; route groups decide whether that identity is
// required.
func Setup(cfg *config.Config, c *container.Container) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	authenticate := auth.Authenticate(c.Logger, c.TokenService, c.AuthRepo)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", c.AuthHandler.Register)
			r.Post("/login", c.AuthHandler.Login)
			r.Post("/refresh", c.AuthHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(auth.RequireAuth)
				r.Post("/logout", c.AuthHandler.Logout)
				r.Post("/logout-all", c.AuthHandler.LogoutAll)
				r.Get("/profile", c.AuthHandler.Profile)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(auth.RequireAuth)
			r.Use(auth.RequireRole(auth.RoleAdmin))

			r.Get("/", c.UserHandler.ListUsers)
			r.Get("/{id}", c.UserHandler.GetUser)
			r.Patch("/{id}/role", c.UserHandler.ChangeRole)
			r.Delete("/{id}", c.UserHandler.DeleteUser)
		})
	})

	return r
}
