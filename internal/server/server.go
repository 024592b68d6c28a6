// Package server exposes the validation runs over HTTP. Runs are
// synchronous: a request maps to one reference run (and, for comparisons,
// one candidate invocation) and the response carries the full result.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/XVAL/internal/bridge"
	"github.com/copyleftdev/XVAL/internal/compare"
	"github.com/copyleftdev/XVAL/internal/config"
	xerrors "github.com/copyleftdev/XVAL/internal/errors"
	"github.com/copyleftdev/XVAL/internal/problems"
	"github.com/copyleftdev/XVAL/internal/solver"
)

// Server handles the validation API.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	bridge *bridge.Bridge
}

// NewServer creates a server instance with the given config, logger and
// candidate bridge.
func NewServer(cfg *config.Config, logger *zap.Logger, b *bridge.Bridge) *Server {
	return &Server{cfg: cfg, logger: logger, bridge: b}
}

// RegisterRoutes mounts the API onto the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/problems", s.handleProblems)
		r.Post("/run", s.handleRun)
		r.Post("/compare", s.handleCompare)
	})
}

// runRequest is the JSON body shared by the run and compare endpoints.
type runRequest struct {
	Problem   string    `json:"problem"`
	Variant   string    `json:"variant,omitempty"`
	Algorithm string    `json:"algorithm"`
	Initial   []float64 `json:"initial"`
	MaxIter   int       `json:"max_iter"`
	Tol       float64   `json:"tol,omitempty"`
	Alpha     float64   `json:"alpha,omitempty"`
	Lambda    float64   `json:"lambda,omitempty"`
}

// resolve validates the request and builds the problem and run config.
func (s *Server) resolve(req *runRequest) (*problems.Problem, solver.Algorithm, solver.RunConfig, error) {
	alg, err := solver.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, "", solver.RunConfig{}, err
	}

	if req.MaxIter <= 0 {
		req.MaxIter = 100
	}
	if req.Lambda == 0 {
		req.Lambda = s.cfg.Validation.Lambda
	}
	if req.Tol == 0 {
		req.Tol = s.cfg.Validation.Tolerance
	}

	var problem *problems.Problem
	if req.Variant != "" || req.Problem == "logistic-regression" {
		problem, err = problems.GetData(req.Problem, req.Variant, s.cfg.Validation.DatasetPath, req.Lambda)
	} else {
		problem, err = problems.Get(req.Problem)
	}
	if err != nil {
		return nil, "", solver.RunConfig{}, err
	}

	initial := req.Initial
	if len(initial) == 0 {
		initial = make([]float64, problem.Dim)
	}

	return problem, alg, solver.RunConfig{
		Initial: initial,
		MaxIter: req.MaxIter,
		Tol:     req.Tol,
		Alpha:   req.Alpha,
	}, nil
}

// handleProblems lists the closed catalogue and algorithm vocabulary.
func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"analytic":   problems.AnalyticNames(),
		"data":       []string{"logistic-regression", "separating-hyperplane"},
		"variants":   []string{"soft-margin", "perceptron", "squared-hinge"},
		"algorithms": solver.Algorithms(),
	})
}

// handleRun executes a single reference run and returns its result.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	problem, alg, cfg, err := s.resolve(&req)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}

	result, err := solver.Run(problem, alg, cfg, s.logger)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleCompare runs reference and candidate for one configuration and
// returns the verdict with both sides' headline metrics.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	problem, alg, cfg, err := s.resolve(&req)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}

	ref, err := solver.Run(problem, alg, cfg, s.logger)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}

	cand := s.bridge.Run(r.Context(), bridge.Request{
		Problem:   req.Problem,
		Variant:   req.Variant,
		Algorithm: alg,
		Initial:   cfg.Initial,
		MaxIter:   cfg.MaxIter,
		Alpha:     req.Alpha,
		Lambda:    req.Lambda,
	})

	verdict, details := compare.Compare(ref, cand, req.Problem)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"verdict": verdict,
		"details": details,
	})
}

// statusFor maps configuration errors to 400s and everything else to 500s.
func statusFor(err error) int {
	if xerrors.IsConfiguration(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("Request error",
		zap.Int("status", status),
		zap.Error(err),
	)
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}
