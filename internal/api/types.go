package api

import (
	"github.com/MJE43/dispatch-resolve-go/internal/engine"
	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
	"github.com/MJE43/dispatch-resolve-go/internal/scan"
	"github.com/MJE43/dispatch-resolve-go/internal/sim"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidSeed  = "invalid_seed"
	ErrTypeInvalidStats = "invalid_stats"
	ErrTypeValidation   = "validation_error"

	// Resolution errors
	ErrTypeResolution = "resolution_error"
	ErrTypeNotFound   = "not_found"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryResolution ErrorCategory = "resolution"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidSeed, ErrTypeInvalidStats, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeResolution, ErrTypeNotFound:
		return CategoryResolution
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// ResolveRequest asks for a verdict only.
type ResolveRequest struct {
	Seeds       engine.Seeds       `json:"seeds"`
	Nonce       uint64             `json:"nonce"`
	AgentStats  resolve.StatVector `json:"agent_stats"`
	Requirement resolve.StatVector `json:"requirement"`
}

// ResolveResponse carries the verdict.
type ResolveResponse struct {
	Verdict       resolve.Verdict `json:"verdict"`
	EngineVersion string          `json:"engine_version"`
	Echo          ResolveRequest  `json:"echo"`
}

// ConfirmRequest asks for a verdict plus the full physical confirmation.
type ConfirmRequest struct {
	Seeds       engine.Seeds       `json:"seeds"`
	Nonce       uint64             `json:"nonce"`
	AgentStats  resolve.StatVector `json:"agent_stats"`
	Requirement resolve.StatVector `json:"requirement"`

	// FrameEvery samples every Nth simulation step into the response;
	// 0 means the default.
	FrameEvery int `json:"frame_every,omitempty"`
}

// Frame is one sampled marker position.
type Frame struct {
	T     float64 `json:"t"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Phase string  `json:"phase"`
}

// ConfirmResponse carries the outcome and the sampled trajectory.
type ConfirmResponse struct {
	Outcome       sim.Outcome    `json:"outcome"`
	Frames        []Frame        `json:"frames"`
	ResolutionID  string         `json:"resolution_id,omitempty"`
	EngineVersion string         `json:"engine_version"`
	Echo          ConfirmRequest `json:"echo"`
}

// ScanResponse wraps a scan result with the engine version.
type ScanResponse struct {
	Hits          []scan.Hit       `json:"hits"`
	Summary       scan.Summary     `json:"summary"`
	EngineVersion string           `json:"engine_version"`
	Echo          scan.ScanRequest `json:"echo"`
}

// SeedHashRequest represents a seed hashing request
type SeedHashRequest struct {
	ServerSeed string `json:"server_seed"`
}

// SeedHashResponse represents a seed hashing response
type SeedHashResponse struct {
	Hash          string          `json:"hash"`
	EngineVersion string          `json:"engine_version"`
	Echo          SeedHashRequest `json:"echo"`
}

// HealthResponse represents a basic health check response
type HealthResponse struct {
	Status        string `json:"status"`
	EngineVersion string `json:"engine_version"`
	Timestamp     string `json:"timestamp"`
}
