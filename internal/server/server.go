// Package server exposes station lookup, report decoding and briefings over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rmitchellscott/nimbus/internal/briefing"
	"github.com/rmitchellscott/nimbus/station"
)

// maxReportBytes caps the body accepted by the decode endpoint.
const maxReportBytes = 64 << 10

// Server exposes health, metrics and the v1 API.
type Server struct {
	httpServer *http.Server
	svc        *briefing.Service
	logger     *zap.Logger
}

// NewServer creates an HTTP server listening on addr. Metrics are served
// from gatherer.
func NewServer(addr string, svc *briefing.Service, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		svc:    svc,
		logger: logger.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stations/nearest", s.handleNearest)
		r.Get("/stations/{id}", s.handleStation)
		r.Get("/stations/{id}/conditions", s.handleConditions)
		r.Get("/briefing", s.handleBriefing)
		r.Post("/decode", s.handleDecode)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type nearestResponse struct {
	Station       station.Record `json:"station"`
	DistanceMiles float64        `json:"distance_miles"`
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	pos, err := parsePosition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, distance, err := s.svc.Nearest(pos)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, http.StatusOK, nearestResponse{Station: rec, DistanceMiles: distance})
}

func (s *Server) handleStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, ok := s.svc.Directory().Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("station %s not found", id))
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := s.svc.ForStation(r.Context(), id)
	if err != nil {
		s.logger.Warn("Briefing failed", zap.String("station", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	pos, err := parsePosition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := s.svc.ForPosition(r.Context(), pos)
	switch {
	case errors.Is(err, briefing.ErrNoStation):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.logger.Warn("Briefing failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("report body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading body: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, s.svc.Decode(string(body)))
}

// parsePosition reads the lat and lon query parameters.
func parsePosition(r *http.Request) (station.Position, error) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return station.Position{}, fmt.Errorf("invalid lat: %q", q.Get("lat"))
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return station.Position{}, fmt.Errorf("invalid lon: %q", q.Get("lon"))
	}

	pos := station.Position{Latitude: lat, Longitude: lon}
	if !pos.Valid() {
		return station.Position{}, fmt.Errorf("position out of range: %g, %g", lat, lon)
	}
	return pos, nil
}

// writeJSON encodes v before writing the status, so an unencodable value
// becomes a 500 rather than an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("encoding response: %v", err)})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
