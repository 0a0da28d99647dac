package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/groups"
	"github.com/taskhive/taskhive/internal/observability"
	"github.com/taskhive/taskhive/internal/tasks"
	"github.com/taskhive/taskhive/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Gate          *auth.Gate
	AuthHandler   *auth.Handler
	TasksHandler  *tasks.Handler
	GroupsHandler *groups.Handler
	UsersHandler  *users.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with TaskHive defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Tasks only authenticate: the original exposed them to every logged-in
	// user regardless of role.
	r.Route("/tasks", func(r chi.Router) {
		r.Use(params.Gate.Require())
		params.TasksHandler.MountRoutes(r)
	})

	r.Route("/groups", params.GroupsHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
