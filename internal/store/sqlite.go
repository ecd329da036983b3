package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS resolutions (
			id TEXT PRIMARY KEY,
			server_seed_hash TEXT NOT NULL,
			client_seed TEXT NOT NULL,
			nonce INTEGER NOT NULL,
			agent_stats TEXT NOT NULL,
			requirement TEXT NOT NULL,
			success INTEGER NOT NULL,
			coverage_percent REAL NOT NULL,
			sector INTEGER NOT NULL,
			distance REAL NOT NULL,
			final_x REAL NOT NULL DEFAULT 0,
			final_y REAL NOT NULL DEFAULT 0,
			contained INTEGER NOT NULL DEFAULT 0,
			forced INTEGER NOT NULL DEFAULT 0,
			settle_time REAL NOT NULL DEFAULT 0,
			bounces INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_created_at ON resolutions(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_success ON resolutions(success, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SaveResolution saves a resolution to the database
func (s *SQLiteDB) SaveResolution(res *Resolution) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}

	agentJSON, err := json.Marshal(res.AgentStats)
	if err != nil {
		return fmt.Errorf("marshal agent stats: %w", err)
	}
	reqJSON, err := json.Marshal(res.Requirement)
	if err != nil {
		return fmt.Errorf("marshal requirement: %w", err)
	}

	query := `INSERT INTO resolutions (
		id, server_seed_hash, client_seed, nonce, agent_stats, requirement,
		success, coverage_percent, sector, distance,
		final_x, final_y, contained, forced, settle_time, bounces
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		res.ID, res.ServerSeedHash, res.ClientSeed, res.Nonce,
		string(agentJSON), string(reqJSON),
		boolToInt(res.Success), res.CoveragePercent, res.Sector, res.Distance,
		res.FinalX, res.FinalY, boolToInt(res.Contained), boolToInt(res.Forced),
		res.SettleTime, res.Bounces,
	)

	return err
}

// GetResolution retrieves a resolution by ID
func (s *SQLiteDB) GetResolution(id string) (*Resolution, error) {
	query := `SELECT id, server_seed_hash, client_seed, nonce, agent_stats, requirement,
		success, coverage_percent, sector, distance,
		final_x, final_y, contained, forced, settle_time, bounces, created_at
		FROM resolutions WHERE id = ?`

	res, err := scanResolution(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListResolutions returns a paginated, newest-first resolution history
func (s *SQLiteDB) ListResolutions(query ResolutionsQuery) (*ResolutionsList, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 200 {
		query.PerPage = 50
	}

	where := ""
	args := []any{}
	switch query.Outcome {
	case "success":
		where = " WHERE success = 1"
	case "failure":
		where = " WHERE success = 0"
	}

	var totalCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM resolutions"+where, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("count resolutions: %w", err)
	}

	offset := (query.Page - 1) * query.PerPage
	rows, err := s.db.Query(`SELECT id, server_seed_hash, client_seed, nonce, agent_stats, requirement,
		success, coverage_percent, sector, distance,
		final_x, final_y, contained, forced, settle_time, bounces, created_at
		FROM resolutions`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, query.PerPage, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := []Resolution{}
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	return &ResolutionsList{
		Resolutions: resolutions,
		TotalCount:  totalCount,
		Page:        query.Page,
		PerPage:     query.PerPage,
		TotalPages:  totalPages,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResolution(row rowScanner) (*Resolution, error) {
	var res Resolution
	var agentJSON, reqJSON string
	var success, contained, forced int
	var createdAt string

	err := row.Scan(&res.ID, &res.ServerSeedHash, &res.ClientSeed, &res.Nonce,
		&agentJSON, &reqJSON,
		&success, &res.CoveragePercent, &res.Sector, &res.Distance,
		&res.FinalX, &res.FinalY, &contained, &forced, &res.SettleTime, &res.Bounces,
		&createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(agentJSON), &res.AgentStats); err != nil {
		return nil, fmt.Errorf("unmarshal agent stats: %w", err)
	}
	if err := json.Unmarshal([]byte(reqJSON), &res.Requirement); err != nil {
		return nil, fmt.Errorf("unmarshal requirement: %w", err)
	}

	res.Success = success == 1
	res.Contained = contained == 1
	res.Forced = forced == 1
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		res.CreatedAt = t
	}

	return &res, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
