// Package transport assembles the HTTP surface: REST endpoints, the
// websocket dashboard stream and health probes behind one middleware chain.
package transport

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/gradebook-backend/internal/config"
	"github.com/heartmarshall/gradebook-backend/internal/transport/middleware"
	"github.com/heartmarshall/gradebook-backend/internal/transport/rest"
)

// RouterDeps holds everything NewRouter wires together.
type RouterDeps struct {
	Health      *rest.HealthHandler
	Gradebook   *rest.GradebookHandler
	Stream      http.Handler // GET /ws/dashboard
	RateLimiter *middleware.RateLimiter
	Config      config.Config
	Logger      *slog.Logger
}

// NewRouter builds the root handler.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", d.Health.Live)
	mux.HandleFunc("GET /ready", d.Health.Ready)
	mux.HandleFunc("GET /health", d.Health.Health)

	g := d.Gradebook
	mux.HandleFunc("GET /api/students", g.ListStudents)
	mux.HandleFunc("POST /api/students", g.CreateStudent)
	mux.HandleFunc("PATCH /api/students/{id}", g.UpdateStudent)
	mux.HandleFunc("DELETE /api/students/{id}", g.DeleteStudent)

	mux.HandleFunc("GET /api/subjects", g.ListSubjects)
	mux.HandleFunc("POST /api/subjects", g.CreateSubject)
	mux.HandleFunc("PATCH /api/subjects/{id}", g.UpdateSubject)
	mux.HandleFunc("DELETE /api/subjects/{id}", g.DeleteSubject)

	mux.HandleFunc("GET /api/grades", g.ListGrades)
	mux.HandleFunc("POST /api/grades", g.CreateGrade)
	mux.HandleFunc("PATCH /api/grades/{id}", g.UpdateGrade)
	mux.HandleFunc("DELETE /api/grades/{id}", g.DeleteGrade)

	mux.HandleFunc("GET /api/dashboard", g.Dashboard)
	mux.HandleFunc("GET /api/notifications", g.Notifications)

	if d.Stream != nil {
		mux.Handle("GET /ws/dashboard", d.Stream)
	}

	mws := []middleware.Middleware{
		middleware.Recovery(d.Logger),
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.CORS(d.Config.CORS),
	}
	if d.RateLimiter != nil {
		mws = append(mws, d.RateLimiter.LimitWrites(d.Config.Server.WriteRateLimit))
	}

	return middleware.Chain(mws...)(mux)
}
