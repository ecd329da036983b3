package store

import (
	"time"

	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
)

// DB is the persistence interface for resolution history.
type DB interface {
	Close() error
	Migrate() error
	SaveResolution(res *Resolution) error
	GetResolution(id string) (*Resolution, error)
	ListResolutions(query ResolutionsQuery) (*ResolutionsList, error)
}

// Resolution is one persisted resolution with its confirmation outcome.
// Only the hash of the server seed is stored, never the seed itself.
type Resolution struct {
	ID             string `json:"id" db:"id"`
	ServerSeedHash string `json:"server_seed_hash" db:"server_seed_hash"`
	ClientSeed     string `json:"client_seed" db:"client_seed"`
	Nonce          uint64 `json:"nonce" db:"nonce"`

	AgentStats  resolve.StatVector `json:"agent_stats" db:"agent_stats"`
	Requirement resolve.StatVector `json:"requirement" db:"requirement"`

	Success         bool    `json:"success" db:"success"`
	CoveragePercent float64 `json:"coverage_percent" db:"coverage_percent"`
	Sector          int     `json:"sector" db:"sector"`
	Distance        float64 `json:"distance" db:"distance"`

	FinalX     float64 `json:"final_x" db:"final_x"`
	FinalY     float64 `json:"final_y" db:"final_y"`
	Contained  bool    `json:"contained" db:"contained"`
	Forced     bool    `json:"forced" db:"forced"`
	SettleTime float64 `json:"settle_time" db:"settle_time"`
	Bounces    int     `json:"bounces" db:"bounces"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ResolutionsQuery represents query parameters for listing resolutions.
type ResolutionsQuery struct {
	Outcome string `json:"outcome,omitempty"` // "success", "failure" or empty
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// ResolutionsList represents a paginated resolutions response.
type ResolutionsList struct {
	Resolutions []Resolution `json:"resolutions"`
	TotalCount  int          `json:"totalCount"`
	Page        int          `json:"page"`
	PerPage     int          `json:"perPage"`
	TotalPages  int          `json:"totalPages"`
}
