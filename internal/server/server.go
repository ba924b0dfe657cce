// Package server exposes the locator over HTTP. The engine stays
// synchronous; only the request handling here is concurrent.
package server

import (
	"net/http"
	"os"

	"drone-locator/internal/locate"
	"drone-locator/internal/logger"
	"drone-locator/internal/matcher"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Server holds the HTTP front-end state.
type Server struct {
	Locator *locate.Locator
	Matcher *matcher.Matcher
	Log     logger.ILogger

	// MaxUploadBytes caps the multipart form size. Zero means 32 MiB.
	MaxUploadBytes int64
}

// New returns a Server over the given locator.
func New(loc *locate.Locator, m *matcher.Matcher, log logger.ILogger) *Server {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Server{
		Locator: loc,
		Matcher: m,
		Log:     log,
	}
}

// Handler builds the routed handler with request logging and panic
// recovery middleware.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/match", s.handleMatch).Methods(http.MethodPost)
	router.HandleFunc("/api/contours", s.handleContours).Methods(http.MethodPost)

	return handlers.CombinedLoggingHandler(os.Stdout,
		handlers.RecoveryHandler()(router))
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.Log.Infof("Listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}
