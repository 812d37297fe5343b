package router

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/token"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/user"
)

const apiPrefix = "/api/v1"

// Deps are the collaborators mounted by RegisterRoutes.
type Deps struct {
	Logger  *zap.SugaredLogger
	Users   *user.Handler
	Tasks   *task.Handler
	Tokens  *token.Service
	Metrics *metrics.Metrics
	// Limiter throttles the anonymous auth endpoints; nil disables it.
	Limiter        *RateLimiter
	TrustedOrigins []string
	// Ping reports storage health; nil means always healthy.
	Ping func(ctx context.Context) error
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	auth := RequireAuth(d.Tokens, d.Logger)
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if d.Limiter == nil {
			return h
		}
		return d.Limiter.Limit(h)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to the TaskBite API",
			"docs":    "/api/docs",
		})
	})
	mux.HandleFunc("GET "+apiPrefix+"/health", healthHandler(d.Ping))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}
	mux.HandleFunc("GET /api/docs", swaggerUIHandler)
	mux.HandleFunc("GET /api/docs/init.js", swaggerInitHandler)
	mux.HandleFunc("GET /api/docs/openapi.json", openAPIHandler)

	// auth routes
	mux.HandleFunc("POST "+apiPrefix+"/auth/register", limited(d.Users.Register))
	mux.HandleFunc("GET "+apiPrefix+"/auth/verify/{token}", d.Users.Verify)
	mux.HandleFunc("POST "+apiPrefix+"/auth/resend-verification", limited(d.Users.ResendVerification))
	mux.HandleFunc("POST "+apiPrefix+"/auth/login", limited(d.Users.Login))
	mux.HandleFunc("POST "+apiPrefix+"/auth/logout", auth(d.Users.Logout))
	mux.HandleFunc("POST "+apiPrefix+"/auth/forgot-password", limited(d.Users.ForgotPassword))
	mux.HandleFunc("POST "+apiPrefix+"/auth/reset-password", limited(d.Users.ResetPassword))
	mux.HandleFunc("PUT "+apiPrefix+"/auth/update/{user_id}", auth(d.Users.Update))
	mux.HandleFunc("POST "+apiPrefix+"/auth/delete", auth(d.Users.DeleteByBody))
	mux.HandleFunc("DELETE "+apiPrefix+"/auth/delete/{user_id}", auth(d.Users.DeleteByPath))
	mux.HandleFunc("GET "+apiPrefix+"/auth/me", auth(d.Users.Me))
	mux.HandleFunc("GET "+apiPrefix+"/auth/dashboard", auth(d.Tasks.Dashboard))

	// task routes
	mux.HandleFunc("POST "+apiPrefix+"/tasks/notes", auth(d.Tasks.CreateNote))
	mux.HandleFunc("GET "+apiPrefix+"/tasks/notes", auth(d.Tasks.ListNotes))
	mux.HandleFunc("GET "+apiPrefix+"/tasks/notes/{id}", auth(d.Tasks.GetNote))
	mux.HandleFunc("PUT "+apiPrefix+"/tasks/notes/{id}", auth(d.Tasks.UpdateNote))
	mux.HandleFunc("DELETE "+apiPrefix+"/tasks/notes/{id}", auth(d.Tasks.DeleteNote))
	mux.HandleFunc("POST "+apiPrefix+"/tasks/todos", auth(d.Tasks.CreateTodo))
	mux.HandleFunc("GET "+apiPrefix+"/tasks/todos", auth(d.Tasks.ListTodos))
	mux.HandleFunc("GET "+apiPrefix+"/tasks/todos/{id}", auth(d.Tasks.GetTodo))
	mux.HandleFunc("PUT "+apiPrefix+"/tasks/todos/{id}", auth(d.Tasks.UpdateTodo))
	mux.HandleFunc("DELETE "+apiPrefix+"/tasks/todos/{id}", auth(d.Tasks.DeleteTodo))

	// calendar routes
	mux.HandleFunc("GET "+apiPrefix+"/calendar/events", auth(d.Tasks.Events))
	mux.HandleFunc("POST "+apiPrefix+"/calendar/events", auth(d.Tasks.AddEvent))

	var handler http.Handler = mux
	handler = CORSMiddleware(d.TrustedOrigins)(handler)
	handler = SecurityHeadersMiddleware()(handler)
	if d.Metrics != nil {
		handler = MetricsMiddleware(d.Metrics)(handler)
	}
	handler = LoggingMiddleware(d.Logger)(handler)
	return RequestIDMiddleware()(handler)
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
