package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/dispatch-resolve-go/internal/store"
)

// listProbe is the cheapest query that exercises the history table.
var listProbe = store.ResolutionsQuery{Page: 1, PerPage: 1}

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	MemorySys     uint64 `json:"memory_sys_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// MetricsResponse represents basic performance metrics
type MetricsResponse struct {
	Timestamp     string     `json:"timestamp"`
	EngineVersion string     `json:"engine_version"`
	Uptime        string     `json:"uptime"`
	System        SystemInfo `json:"system"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	checks := map[string]HealthCheck{
		"database":  s.checkDatabaseHealth(),
		"simulator": s.checkSimulatorHealth(),
	}

	status := HealthStatusHealthy
	for _, check := range checks {
		switch check.Status {
		case HealthStatusUnhealthy:
			status = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if status == HealthStatusHealthy {
				status = HealthStatusDegraded
			}
		}
	}

	httpStatus := http.StatusOK
	if status == HealthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	s.writeJSON(w, httpStatus, HealthCheckResponse{
		Status:        status,
		Timestamp:     now.Format(time.RFC3339),
		EngineVersion: EngineVersion,
		Uptime:        time.Since(s.startTime).String(),
		Checks:        checks,
		System:        s.getSystemInfo(),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, MetricsResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		Uptime:        time.Since(s.startTime).String(),
		System:        s.getSystemInfo(),
	})
}

// handleReadiness reports whether the server can accept resolutions.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	db := s.checkDatabaseHealth()
	if db.Status == HealthStatusUnhealthy {
		s.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:        "not ready",
			EngineVersion: EngineVersion,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ready",
		EngineVersion: EngineVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// handleLiveness is a trivial liveness probe.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "alive",
		EngineVersion: EngineVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) checkDatabaseHealth() HealthCheck {
	now := time.Now().UTC().Format(time.RFC3339)
	if s.db == nil {
		return HealthCheck{
			Status:      HealthStatusDegraded,
			Message:     "history disabled",
			LastChecked: now,
		}
	}

	if _, err := s.db.ListResolutions(listProbe); err != nil {
		return HealthCheck{
			Status:      HealthStatusUnhealthy,
			Message:     err.Error(),
			LastChecked: now,
		}
	}

	return HealthCheck{Status: HealthStatusHealthy, LastChecked: now}
}

func (s *Server) checkSimulatorHealth() HealthCheck {
	now := time.Now().UTC().Format(time.RFC3339)
	if s.simOpts.MaxDuration <= 0 || s.simOpts.Restitution >= 1 {
		return HealthCheck{
			Status:      HealthStatusUnhealthy,
			Message:     "simulator options cannot terminate",
			LastChecked: now,
		}
	}
	return HealthCheck{Status: HealthStatusHealthy, LastChecked: now}
}

func (s *Server) getSystemInfo() SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		MemoryAlloc:   mem.Alloc,
		MemorySys:     mem.Sys,
		GCCycles:      mem.NumGC,
	}
}
