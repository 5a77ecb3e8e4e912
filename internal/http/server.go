package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/metrics"
	"mirror/webuntis/internal/payload"
)

const maxBodyBytes = 1 << 20

// Fetcher handles one FETCH_DATA request.
type Fetcher interface {
	FetchData(ctx context.Context, requestID string, module config.Module) []payload.Payload
}

type Server struct {
	cfg           config.Config
	fetcher       Fetcher
	defaultModule *config.Module
}

// NewServer builds the HTTP front. defaultModule is used when a request
// carries no config and may be nil.
func NewServer(cfg config.Config, fetcher Fetcher, defaultModule *config.Module) *Server {
	return &Server{cfg: cfg, fetcher: fetcher, defaultModule: defaultModule}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.With(s.authMiddleware).Post("/api/fetch", s.handleFetch)

	return r
}

// Auth

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fetch

type fetchRequest struct {
	ID     string         `json:"id"`
	Config *config.Module `json:"config"`
}

type fetchResponse struct {
	ID       string            `json:"id"`
	Payloads []payload.Payload `json:"payloads"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	module := req.Config
	if module == nil {
		module = s.defaultModule
	}
	if module == nil {
		writeError(w, http.StatusBadRequest, "missing_config")
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	payloads := s.fetcher.FetchData(r.Context(), id, *module)
	log.Printf("[INFO] fetch id=%s req=%s students=%d payloads=%d", id, middleware.GetReqID(r.Context()), len(module.Students), len(payloads))
	writeJSON(w, http.StatusOK, fetchResponse{ID: id, Payloads: payloads})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
