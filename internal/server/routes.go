package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	// OPTIONS is routed too so preflights reach the middleware.
	r.HandleFunc("/rooms", s.CreateRoom).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms/{code}", s.GetRoom).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/rooms/{code}/join", s.JoinRoom).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms/{code}/start", s.StartRoom).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms/{code}/action", s.PlayerAction).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms/{code}/leave", s.LeaveRoom).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/ws/{code}", s.HandleWebSocket)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS Headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Wildcard allows all origins
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false") // Credentials not allowed with wildcard origins

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
