package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/phrazzld/taskmanager-api/internal/api/middleware"
	"github.com/phrazzld/taskmanager-api/internal/config"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
)

// RouterDeps are the collaborators the HTTP layer needs.
type RouterDeps struct {
	TaskService service.TaskService
	UserService service.UserService
	JWTService  auth.JWTService
	AuthConfig  config.AuthConfig
	Logger      *slog.Logger
}

// NewRouter builds the application router: public auth and health routes,
// and the task routes behind Bearer authentication.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.NewTraceMiddleware(log))

	authHandler := NewAuthHandler(deps.UserService, deps.JWTService, deps.AuthConfig, log)
	taskHandler := NewTaskHandler(deps.TaskService, log)
	authMiddleware := apimiddleware.NewAuthMiddleware(deps.JWTService, log)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/users/me", authHandler.Me)
			r.Route("/tasks", taskHandler.Routes)
		})
	})

	return r
}
