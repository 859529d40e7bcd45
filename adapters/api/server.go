package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"splinemi/adapters/stats/bspline"
	"splinemi/domain/mi"
	"splinemi/internal"
	"splinemi/internal/errors"
)

// maxBodyBytes bounds a single estimate request
const maxBodyBytes = 32 << 20

// Server exposes the registered estimators over HTTP
type Server struct {
	router        *chi.Mux
	estimators    map[string]mi.Estimator
	defaultMethod string
	logger        *internal.Logger
}

// NewServer creates a server; defaultMethod must name a registered estimator
func NewServer(estimators map[string]mi.Estimator, defaultMethod string, logger *internal.Logger) (*Server, error) {
	if _, ok := estimators[defaultMethod]; !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("default estimator %q is not registered", defaultMethod))
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:        chi.NewRouter(),
		estimators:    estimators,
		defaultMethod: defaultMethod,
		logger:        logger.WithField("component", "api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/estimators", s.handleEstimators)
		r.Post("/mi", s.handleEstimate)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d %s req=%s", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEstimators(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.estimators))
	for name := range s.estimators {
		names = append(names, name)
	}
	sort.Strings(names)
	s.writeJSON(w, http.StatusOK, EstimatorsResponse{Default: s.defaultMethod, Estimators: names})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.InvalidInput("malformed request body: "+err.Error()))
		return
	}

	est, err := s.resolve(req)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp := EstimateResponse{ID: uuid.NewString(), Method: est.Name(), N: len(req.X)}
	if analyzer, ok := est.(mi.Analyzer); ok {
		result, err := analyzer.Analyze(r.Context(), req.X, req.Y)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		resp.MI = result.MI
		resp.EntropyX, resp.EntropyY = &result.EntropyX, &result.EntropyY
	} else {
		value, err := est.Estimate(r.Context(), req.X, req.Y)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		resp.MI = value
	}

	s.logger.Info("estimate %s method=%s n=%d mi=%.4f", resp.ID, resp.Method, resp.N, resp.MI)
	s.writeJSON(w, http.StatusOK, resp)
}

// resolve picks the estimator for a request, applying per-request bspline
// parameters on a copy so the registered estimator is never mutated. The copy
// keeps the registered limits, so oversized overrides fail in Analyze.
func (s *Server) resolve(req EstimateRequest) (mi.Estimator, error) {
	method := req.Method
	if method == "" {
		method = s.defaultMethod
	}
	est, ok := s.estimators[method]
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown estimator %q", method))
	}
	if req.NBins == 0 && req.Order == 0 {
		return est, nil
	}
	base, ok := est.(*bspline.Estimator)
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("estimator %q does not accept nbins/order", method))
	}
	custom := *base
	if req.NBins != 0 {
		custom.NBins = req.NBins
	}
	if req.Order != 0 {
		custom.Order = req.Order
	}
	return &custom, nil
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeDegenerateInput, errors.CodeInvalidParameter, errors.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request %s failed: %v", middleware.GetReqID(r.Context()), err)
	}
	s.writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Code:      errors.GetCode(err),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("failed to write %d response: %v", status, err)
	}
}
