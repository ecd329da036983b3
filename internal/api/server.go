package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/dispatch-resolve-go/internal/engine"
	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
	"github.com/MJE43/dispatch-resolve-go/internal/scan"
	"github.com/MJE43/dispatch-resolve-go/internal/sim"
	"github.com/MJE43/dispatch-resolve-go/internal/store"
)

// confirmStep is the fixed integration step for synchronous confirmations.
const confirmStep = 1.0 / 60

// Server handles HTTP requests
type Server struct {
	db           store.DB
	scanner      *scan.Scanner
	simOpts      sim.Options
	errorHandler *ErrorHandler
	logger       *log.Logger
	startTime    time.Time
}

// NewServer creates a new API server. db may be nil to disable history.
func NewServer(db store.DB) *Server {
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)

	simOpts := sim.DefaultOptions()
	simOpts.Logger = log.New(os.Stdout, "[SIM] ", log.LstdFlags)

	return &Server{
		db:           db,
		scanner:      scan.NewScanner(),
		simOpts:      simOpts,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Post("/confirm", s.handleConfirm)
		r.Post("/scan", s.handleScan)
		r.Get("/resolutions", s.handleListResolutions)
		r.Get("/resolutions/{id}", s.handleGetResolution)
		r.Post("/seed/hash", s.handleSeedHash)
	})

	return r
}

// CORSMiddleware allows local tooling to hit the API from a browser.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) validateSeeds(w http.ResponseWriter, r *http.Request, seeds engine.Seeds) bool {
	if seeds.Server == "" {
		s.errorHandler.HandleValidationError(w, r, "seeds.server", "server seed is required")
		return false
	}
	if seeds.Client == "" {
		s.errorHandler.HandleValidationError(w, r, "seeds.client", "client seed is required")
		return false
	}
	return true
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}
	if !s.validateSeeds(w, r, req.Seeds) {
		return
	}

	src := engine.NewByteGenerator(req.Seeds, req.Nonce, 0)
	verdict, err := resolve.Resolve(req.AgentStats, req.Requirement, src)
	if err != nil {
		s.errorHandler.HandleResolutionError(w, r, req.Nonce, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ResolveResponse{
		Verdict:       verdict,
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}
	if !s.validateSeeds(w, r, req.Seeds) {
		return
	}

	// The verdict and the marker trajectory consume one continuous float
	// stream, so the confirmation can never contradict the verdict it is
	// rendering and the whole run replays from (seeds, nonce).
	src := engine.NewByteGenerator(req.Seeds, req.Nonce, 0)
	verdict, err := resolve.Resolve(req.AgentStats, req.Requirement, src)
	if err != nil {
		s.errorHandler.HandleResolutionError(w, r, req.Nonce, err)
		return
	}

	conf, err := sim.Begin(verdict, req.AgentStats, req.Requirement, src, s.simOpts)
	if err != nil {
		s.errorHandler.HandleResolutionError(w, r, req.Nonce, err)
		return
	}

	frameEvery := req.FrameEvery
	if frameEvery <= 0 {
		frameEvery = 4
	}

	var frames []Frame
	sample := func(t float64) {
		pos := conf.Position()
		frames = append(frames, Frame{T: t, X: pos[0], Y: pos[1], Phase: conf.Phase().String()})
	}

	sample(0)
	maxSteps := int(s.simOpts.MaxDuration/confirmStep) + 16
	elapsed := 0.0
	for i := 1; i <= maxSteps && !conf.Done(); i++ {
		phase := conf.Step(confirmStep)
		elapsed += confirmStep
		if i%frameEvery == 0 || phase >= sim.PhaseSettled {
			sample(elapsed)
		}
	}
	conf.ForceSettle()

	outcome, ok := conf.Result()
	if !ok {
		s.errorHandler.HandleError(w, r, errors.New("confirmation did not terminate"), http.StatusInternalServerError)
		return
	}

	resp := ConfirmResponse{
		Outcome:       outcome,
		Frames:        frames,
		EngineVersion: EngineVersion,
		Echo:          req,
	}

	if s.db != nil {
		res := &store.Resolution{
			ServerSeedHash:  engine.HashServerSeed(req.Seeds.Server),
			ClientSeed:      req.Seeds.Client,
			Nonce:           req.Nonce,
			AgentStats:      req.AgentStats,
			Requirement:     req.Requirement,
			Success:         outcome.Success,
			CoveragePercent: verdict.CoveragePercent,
			Sector:          verdict.Sector,
			Distance:        verdict.Distance,
			FinalX:          outcome.Final[0],
			FinalY:          outcome.Final[1],
			Contained:       outcome.Contained,
			Forced:          outcome.Forced,
			SettleTime:      outcome.Elapsed,
			Bounces:         outcome.Bounces,
		}
		if err := s.db.SaveResolution(res); err != nil {
			// History is best-effort; the outcome still gets delivered.
			s.logger.Printf("failed to persist resolution: %v", err)
		} else {
			resp.ResolutionID = res.ID
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scan.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}
	if !s.validateSeeds(w, r, req.Seeds) {
		return
	}

	result, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		if errors.Is(err, scan.ErrInvalidRange) {
			s.errorHandler.HandleValidationError(w, r, "nonce_range", err.Error())
			return
		}
		if errors.Is(err, scan.ErrTimeout) {
			s.errorHandler.HandleTimeoutError(w, r, "scan", req.TimeoutMs)
			return
		}
		s.errorHandler.HandleError(w, r, err, http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusOK, ScanResponse{
		Hits:          result.Hits,
		Summary:       result.Summary,
		EngineVersion: EngineVersion,
		Echo:          result.Echo,
	})
}

func (s *Server) handleListResolutions(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("history disabled"), http.StatusServiceUnavailable)
		return
	}

	query := store.ResolutionsQuery{Outcome: r.URL.Query().Get("outcome")}
	if page := r.URL.Query().Get("page"); page != "" {
		if err := parsePositive(page, &query.Page); err != nil {
			s.errorHandler.HandleValidationError(w, r, "page", "must be a positive integer")
			return
		}
	}
	if perPage := r.URL.Query().Get("per_page"); perPage != "" {
		if err := parsePositive(perPage, &query.PerPage); err != nil {
			s.errorHandler.HandleValidationError(w, r, "per_page", "must be a positive integer")
			return
		}
	}

	list, err := s.db.ListResolutions(query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetResolution(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("history disabled"), http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	res, err := s.db.GetResolution(id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	if res == nil {
		engineErr := NewError(ErrTypeNotFound, "resolution not found").
			WithRequestID(middleware.GetReqID(r.Context())).
			WithContext("id", id).
			Build()
		s.errorHandler.writeErrorResponse(w, http.StatusNotFound, engineErr)
		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	var req SeedHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}
	if req.ServerSeed == "" {
		s.errorHandler.HandleValidationError(w, r, "server_seed", "server seed is required")
		return
	}

	s.writeJSON(w, http.StatusOK, SeedHashResponse{
		Hash:          engine.HashServerSeed(req.ServerSeed),
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

func parsePositive(s string, dst *int) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < 1 {
		return errors.New("must be positive")
	}
	*dst = v
	return nil
}
