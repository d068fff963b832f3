package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/levijcl/Wei-sub002/internal/api/middleware"
	"github.com/levijcl/Wei-sub002/internal/auth"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.JWTService) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(jwtService)
	requireOperator := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(auth.RoleOperator)(h))
	}
	requireViewer := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(auth.RoleOperator, auth.RoleViewer)(h))
	}

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Login(w, r)
	})

	// Orders
	mux.Handle("/orders", requireOperator(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.CreateOrder(w, r)
	}))

	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/fulfill") && r.Method == http.MethodPost:
			requireOperator(handlers.InitiateFulfillment).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/ship") && r.Method == http.MethodPost:
			requireOperator(handlers.ShipOrder).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			requireViewer(handlers.GetOrder).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Picking tasks
	mux.HandleFunc("/picking-tasks/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			requireOperator(handlers.CancelTask).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/priority") && r.Method == http.MethodPut:
			requireOperator(handlers.AdjustTaskPriority).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			requireViewer(handlers.GetTask).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Audit trail
	mux.Handle("/audit", requireViewer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.GetRecentActivity(w, r)
	}))

	mux.Handle("/audit/", requireViewer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.GetAuditTrail(w, r)
	}))

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
