// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/customermatch/internal/app"
	"github.com/okian/customermatch/pkg/logger"
)

// Uploader runs one Customer Match upload. *service.Service satisfies it.
type Uploader interface {
	Upload(ctx context.Context, req service.UploadRequest) (service.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	customerMatchHandler *CustomerMatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(uploader Uploader, log logger.Logger) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		customerMatchHandler: NewCustomerMatchHandler(uploader, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	upload := MetricsMiddleware(s.customerMatchHandler.HandleCustomerMatch, "customer_match")

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/customer-match", upload)
	// "/" is the function entry point; any other path is unknown.
	mux.HandleFunc("/{$}", upload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
