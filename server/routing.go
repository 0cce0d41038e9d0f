package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/version"
)

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("/lsp", s.corsMiddleware(s.apiMiddleware(s.HandleGLSPWebSocket))) // LSP completion over WebSocket

	mux.HandleFunc("/api/typeahead/candidates", s.corsMiddleware(s.apiMiddleware(s.HandleCandidates))) // Compose box suggestions (POST)
	mux.HandleFunc("/api/typeahead/select", s.corsMiddleware(s.apiMiddleware(s.HandleSelect)))         // Apply a suggestion (POST)
	mux.HandleFunc("/api/typeahead/tokenize", s.corsMiddleware(s.apiMiddleware(s.HandleTokenize)))     // Token left of the cursor (POST)
	mux.HandleFunc("/api/typeahead/recipients", s.corsMiddleware(s.apiMiddleware(s.HandleRecipients))) // Direct message recipient field (POST)
	mux.HandleFunc("/api/search/suggestions", s.corsMiddleware(s.apiMiddleware(s.HandleSearchSuggestions)))
	mux.HandleFunc("/api/search/context", s.corsMiddleware(s.apiMiddleware(s.HandleSearchContext))) // Compose context for a narrow (GET)
	mux.HandleFunc("/api/directory/refresh", s.corsMiddleware(s.apiMiddleware(s.HandleDirectoryRefresh)))

	return s.requestIDMiddleware(mux)
}

// requestIDMiddleware tags every request with an id, taken from the
// X-Request-ID header when the client sent one
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// corsMiddleware adds CORS headers using the configured allowed origins.
// It uses the same origin validation as WebSocket connections.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", ClientVersionHeader, RequestIDHeader}, ", "))

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// apiMiddleware refuses requests while draining and from clients older
// than server.min_client_version. Browsers cannot set headers on a
// WebSocket upgrade, so the version may also come as ?client_version=.
func (s *Server) apiMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.getState() != ServerStateRunning {
			w.Header().Set("Retry-After", "5")
			writeError(w, http.StatusServiceUnavailable, ErrDraining.Error())
			return
		}

		clientVersion := r.Header.Get(ClientVersionHeader)
		if clientVersion == "" {
			clientVersion = r.URL.Query().Get("client_version")
		}
		if err := version.CheckClient(clientVersion, s.config().Server.MinClientVersion); err != nil {
			s.logger.Debugw("Client version rejected",
				"client_version", clientVersion,
				logger.FieldPath, r.URL.Path,
				logger.FieldError, err)
			writeError(w, http.StatusUpgradeRequired, ErrClientTooOld.Error()+": "+err.Error())
			return
		}

		next(w, r)
	}
}
