// Package server exposes the authorization grant flow over HTTP. Every
// step is stateless: whatever a step needs from the previous one
// arrives in query or form fields, and redirects carry the continuation
// forward. The only durable state lives on the ledger.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ctiport/bcauth/internal/config"
	"github.com/ctiport/bcauth/internal/fabric"
)

// Invoker is the ledger call surface the handlers depend on.
type Invoker interface {
	Call(ctx context.Context, org, chaincode, function string, args []string) fabric.Result
	ChannelInfo(ctx context.Context) (string, error)
}

// CredentialVerifier checks a uid/password pair.
type CredentialVerifier interface {
	Verify(uid, password string) error
}

// Server holds the handler dependencies.
type Server struct {
	ledger Invoker
	creds  CredentialVerifier
	uma    config.UMA
	logger *slog.Logger
}

// New creates a Server.
func New(ledger Invoker, creds CredentialVerifier, uma config.UMA, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{ledger: ledger, creds: creds, uma: uma, logger: logger}
}

// Router mounts every flow step.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/pat", s.patForm)
	r.Post("/pat", s.patIssue)
	r.Post("/rreg", s.resourceCreate)
	r.Get("/rreg-list", s.resourceListForm)
	r.Post("/rreg-list", s.resourceList)
	r.Post("/rreg-call", s.resourceQuery)
	r.Get("/policy", s.policyForm)
	r.Post("/policy", s.policySet)
	r.Post("/perm", s.permissionTicket)
	r.Post("/token", s.tokenExchange)
	r.Get("/rqp-claims", s.claimsGathering)
	r.Get("/authen", s.authenForm)
	r.Post("/authen", s.authenSubmit)
	r.Post("/intro", s.introspect)
	r.Get("/blockhash", s.blockhash)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeResponse wraps a success value in the {"response": ...} envelope
// every non-redirect step uses.
func writeResponse(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, map[string]any{"response": v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
