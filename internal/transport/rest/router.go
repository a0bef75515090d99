package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"surveyforge/internal/service"
	"surveyforge/internal/transport/rest/handler"
	"surveyforge/internal/transport/rest/middleware"
	"surveyforge/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	SurveyService   *service.SurveyService
	ResponseService *service.ResponseService
	ResultService   *service.ResultService
	WSHub           *ws.Hub

	// CORSOrigins is a comma separated list, or "*"
	CORSOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	cors := newCORS(c.CORSOrigins)

	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService, c.ResponseService)
	respondentHandler := handler.NewRespondentHandler(c.SurveyService, c.ResponseService, c.ResultService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.ResultService, cors.allowed)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(cors.middleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/surveys/{surveyId}/public", respondentHandler.GetSurvey).Methods("GET", "OPTIONS")
	v1.HandleFunc("/surveys/{surveyId}/responses", respondentHandler.Submit).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/results/{sessionId}", wsHandler.ResultWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/components", surveyHandler.Components).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Delete).Methods("DELETE", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{surveyId}/responses", surveyHandler.Responses).Methods("GET", "OPTIONS")

	// Respondent routes (require result session token)
	respondentRoutes := v1.NewRoute().Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("/results/{sessionId}", respondentHandler.GetResult).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/results/{sessionId}", respondentHandler.CloseResult).Methods("DELETE", "OPTIONS")

	return r
}

type corsPolicy struct {
	any     bool
	origins map[string]bool
}

func newCORS(origins string) *corsPolicy {
	p := &corsPolicy{origins: make(map[string]bool)}
	for _, o := range strings.Split(origins, ",") {
		switch o = strings.TrimSpace(o); o {
		case "*":
			p.any = true
		case "":
		default:
			p.origins[o] = true
		}
	}
	if len(p.origins) == 0 {
		p.any = true
	}
	return p
}

func (p *corsPolicy) allowed(origin string) bool {
	return p.any || p.origins[origin]
}

func (p *corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case p.any:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && p.origins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
