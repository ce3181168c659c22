package rest

import (
	"auticonnect/internal/logger"
	"auticonnect/internal/service"
	"auticonnect/internal/transport/rest/handler"
	"auticonnect/internal/transport/rest/middleware"
	"auticonnect/internal/transport/ws"
	"net/http"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService         *service.AuthService
	MediationService    *service.MediationService
	ConversationService *service.ConversationService
	AlertService        *service.AlertService
	WSHub               *ws.Hub
	Log                 *logger.Logger
	CORSAllowedOrigins  string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	mediationHandler := handler.NewMediationHandler(c.MediationService, c.ConversationService, c.Log)
	alertHandler := handler.NewAlertHandler(c.AlertService, c.Log)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Log)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/alerts", wsHandler.AlertsWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Operator routes (the chat bridge)
	operatorRoutes := v1.NewRoute().Subrouter()
	operatorRoutes.Use(authMW.RequireOperator)

	operatorRoutes.HandleFunc("/auth/professionals/{userId}/token", authHandler.ProfessionalToken).Methods("POST", "OPTIONS")
	operatorRoutes.HandleFunc("/groups/{groupId}/messages", mediationHandler.PostGroupMessage).Methods("POST", "OPTIONS")
	operatorRoutes.HandleFunc("/groups/{groupId}/mediate", mediationHandler.MediateGroup).Methods("POST", "OPTIONS")
	operatorRoutes.HandleFunc("/groups/{groupId}/conflicts", mediationHandler.MediateConflict).Methods("POST", "OPTIONS")
	operatorRoutes.HandleFunc("/groups/{groupId}/activities/{activityId}/guide", mediationHandler.GuideActivity).Methods("POST", "OPTIONS")
	operatorRoutes.HandleFunc("/users/{userId}/support", mediationHandler.Support).Methods("POST", "OPTIONS")
	operatorRoutes.HandleFunc("/users/{userId}/session", mediationHandler.EndSession).Methods("DELETE", "OPTIONS")

	// Alert routes (operator or professional)
	staffRoutes := v1.NewRoute().Subrouter()
	staffRoutes.Use(authMW.RequireStaff)

	staffRoutes.HandleFunc("/alerts", alertHandler.List).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
