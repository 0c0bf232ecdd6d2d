package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-leave-go/internal/config"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth     AuthHandler
	Employee EmployeeHandler
	Project  ProjectHandler
	Leave    LeaveHandler
	Approval ApprovalHandler
	Events   EventsHandler
}

// NewRouter wires the HTTP surface. rdb may be nil, in which case
// Idempotency-Key headers are ignored.
func NewRouter(cfg *config.Config, JWTService jwt.Service, directory employee.Directory, rdb redis.Cmdable, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"Link", middleware.ReplayedHeader},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(middleware.Metrics)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Handle("/metrics", promhttp.Handler())

	// uploaded photos are public; their names are random
	uploads := cfg.Storage.BaseURL
	r.Handle(uploads+"/*", http.StripPrefix(uploads+"/", http.FileServer(http.Dir(cfg.Storage.BasePath))))

	loginLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst)
	idempotent := func(next http.Handler) http.Handler { return next }
	if rdb != nil {
		idempotent = middleware.Idempotency(rdb, cfg.Redis.IdempotencyTTL)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(loginLimiter.Handler).Post("/auth/login", h.Auth.Login)

		// authenticates itself through ?token=
		r.Get("/events", h.Events.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService, directory))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
				r.Post("/register", h.Auth.Register)
				r.Post("/sse-token", h.Auth.SSEToken)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.Employee.List)
				r.Post("/", h.Employee.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Employee.Get)
					r.Patch("/", h.Employee.Update)
					r.Post("/deactivate", h.Employee.Deactivate)
					r.Put("/balance", h.Employee.AdjustBalance)
					r.Put("/photo", h.Employee.UploadPhoto)
					r.Delete("/photo", h.Employee.RemovePhoto)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.Project.List)
				r.Post("/", h.Project.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Project.Get)
					r.Patch("/", h.Project.Update)
					r.Post("/deactivate", h.Project.Deactivate)
					r.Get("/members", h.Project.ListMembers)
					r.Post("/members", h.Project.AssignMember)
					r.Delete("/members/{employeeID}", h.Project.UnassignMember)
				})
			})

			r.Route("/leave-requests", func(r chi.Router) {
				r.Get("/", h.Leave.List)
				r.With(idempotent).Post("/", h.Leave.Create)
				r.Get("/unassigned", h.Leave.ListUnassigned)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Leave.Get)
					r.Patch("/", h.Leave.Edit)
					r.Post("/cancel", h.Leave.Cancel)
					r.Post("/assign-approver", h.Leave.AssignApprover)
				})
			})

			r.Route("/approval-requests", func(r chi.Router) {
				r.Get("/", h.Approval.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Approval.Get)
					r.With(idempotent).Post("/approve", h.Approval.Approve)
					r.With(idempotent).Post("/reject", h.Approval.Reject)
				})
			})
		})
	})

	return r
}
