// Package scan replays resolutions across nonce ranges: given a seed pair
// and the two stat vectors, it finds the attempts whose outcome matches a
// target. This is the replay question for dispatch outcomes: which attempt
// number finally turns this team's mission into a success, and how often.
package scan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MJE43/dispatch-resolve-go/internal/engine"
	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
)

// Outcome filters hits by verdict.
type Outcome string

const (
	OutcomeAny     Outcome = "any"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// TargetOp represents comparison operations on the landing distance.
type TargetOp string

const (
	OpNone         TargetOp = ""
	OpEqual        TargetOp = "eq"
	OpGreater      TargetOp = "gt"
	OpGreaterEqual TargetOp = "ge"
	OpLess         TargetOp = "lt"
	OpLessEqual    TargetOp = "le"
	OpBetween      TargetOp = "between"
)

// ScanRequest describes a nonce-range scan.
type ScanRequest struct {
	Seeds       engine.Seeds       `json:"seeds"`
	NonceStart  uint64             `json:"nonce_start"`
	NonceEnd    uint64             `json:"nonce_end"`
	AgentStats  resolve.StatVector `json:"agent_stats"`
	Requirement resolve.StatVector `json:"requirement"`

	Outcome Outcome `json:"outcome"`

	// Optional filter on the normalized landing distance.
	TargetOp   TargetOp `json:"target_op,omitempty"`
	TargetVal  float64  `json:"target_val,omitempty"`
	TargetVal2 float64  `json:"target_val2,omitempty"` // for "between"
	Tolerance  float64  `json:"tolerance,omitempty"`   // default 1e-9

	Limit     int `json:"limit,omitempty"`
	TimeoutMs int `json:"timeout_ms,omitempty"`
}

// Hit is one matching resolution.
type Hit struct {
	Nonce    uint64  `json:"nonce"`
	Success  bool    `json:"success"`
	Sector   int     `json:"sector"`
	Distance float64 `json:"distance"`
}

// Summary contains aggregate statistics for a scan.
type Summary struct {
	TotalEvaluated uint64  `json:"total_evaluated"`
	HitsFound      int     `json:"hits_found"`
	SuccessCount   uint64  `json:"success_count"`
	MinDistance    float64 `json:"min_distance"`
	MaxDistance    float64 `json:"max_distance"`
	MeanDistance   float64 `json:"mean_distance"`
	TimedOut       bool    `json:"timed_out,omitempty"`
}

// ScanResult contains the complete scan results.
type ScanResult struct {
	Hits    []Hit       `json:"hits"`
	Summary Summary     `json:"summary"`
	Echo    ScanRequest `json:"echo"`
}

// scanJob is a batch of nonces assigned to one worker.
type scanJob struct {
	nonceStart uint64
	nonceEnd   uint64
}

const jobBatchSize = 1000

// Scanner performs parallel scanning across nonce ranges.
type Scanner struct {
	workerCount int
}

// NewScanner creates a scanner sized to the machine.
func NewScanner() *Scanner {
	return &Scanner{workerCount: runtime.GOMAXPROCS(0)}
}

// targetEvaluator matches landing distances with tolerance.
type targetEvaluator struct {
	op        TargetOp
	val1      float64
	val2      float64
	tolerance float64
}

func (te *targetEvaluator) matches(distance float64) bool {
	switch te.op {
	case OpNone:
		return true
	case OpEqual:
		return math.Abs(distance-te.val1) <= te.tolerance
	case OpGreater:
		return distance > te.val1+te.tolerance
	case OpGreaterEqual:
		return distance >= te.val1-te.tolerance
	case OpLess:
		return distance < te.val1-te.tolerance
	case OpLessEqual:
		return distance <= te.val1+te.tolerance
	case OpBetween:
		return distance >= te.val1-te.tolerance && distance <= te.val2+te.tolerance
	default:
		return false
	}
}

func (o Outcome) matches(success bool) bool {
	switch o {
	case OutcomeSuccess:
		return success
	case OutcomeFailure:
		return !success
	default:
		return true
	}
}

// Scan replays resolutions across the requested nonce range in parallel and
// collects the hits matching the outcome and distance filters.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if req.NonceEnd < req.NonceStart {
		return nil, ErrInvalidRange
	}
	if err := req.Requirement.Validate(); err != nil {
		return nil, err
	}
	if err := req.AgentStats.Validate(); err != nil {
		return nil, err
	}

	parent := ctx
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = 1e-9
	}
	evaluator := &targetEvaluator{op: req.TargetOp, val1: req.TargetVal, val2: req.TargetVal2, tolerance: tolerance}

	jobs := make(chan scanJob, s.workerCount*2)
	hits := make(chan Hit, 1000)

	var totalEvaluated, successCount uint64
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				for nonce := job.nonceStart; nonce <= job.nonceEnd; nonce++ {
					select {
					case <-ctx.Done():
						return
					default:
					}

					src := engine.NewByteGenerator(req.Seeds, nonce, 0)
					verdict, err := resolve.Resolve(req.AgentStats, req.Requirement, src)
					if err != nil {
						// Vectors were validated up front; nothing per-nonce
						// can fail.
						continue
					}

					atomic.AddUint64(&totalEvaluated, 1)
					if verdict.Success {
						atomic.AddUint64(&successCount, 1)
					}

					if req.Outcome.matches(verdict.Success) && evaluator.matches(verdict.Distance) {
						hits <- Hit{
							Nonce:    nonce,
							Success:  verdict.Success,
							Sector:   verdict.Sector,
							Distance: verdict.Distance,
						}
					}
				}
			}
		}()
	}

	// Feed jobs in batches; stop feeding on cancellation.
	go func() {
		defer close(jobs)
		for start := req.NonceStart; ; {
			end := start + jobBatchSize - 1
			if end > req.NonceEnd || end < start {
				end = req.NonceEnd
			}

			select {
			case <-ctx.Done():
				return
			case jobs <- scanJob{nonceStart: start, nonceEnd: end}:
			}

			if end == req.NonceEnd {
				return
			}
			start = end + 1
		}
	}()

	go func() {
		wg.Wait()
		close(hits)
	}()

	var collected []Hit
	for hit := range hits {
		collected = append(collected, hit)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].Nonce < collected[j].Nonce })
	if req.Limit > 0 && len(collected) > req.Limit {
		collected = collected[:req.Limit]
	}

	// The request's own time limit is an error; cancellation from the caller
	// is not, and still yields the partial result with the flag set.
	if req.TimeoutMs > 0 && parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan exceeded %dms: %w", req.TimeoutMs, ErrTimeout)
	}

	summary := summarize(collected, atomic.LoadUint64(&totalEvaluated), atomic.LoadUint64(&successCount))
	summary.TimedOut = ctx.Err() != nil

	return &ScanResult{Hits: collected, Summary: summary, Echo: req}, nil
}

func summarize(hits []Hit, totalEvaluated, successCount uint64) Summary {
	summary := Summary{
		TotalEvaluated: totalEvaluated,
		HitsFound:      len(hits),
		SuccessCount:   successCount,
	}
	if len(hits) == 0 {
		return summary
	}

	summary.MinDistance = math.Inf(1)
	summary.MaxDistance = math.Inf(-1)
	sum := 0.0
	for _, hit := range hits {
		summary.MinDistance = math.Min(summary.MinDistance, hit.Distance)
		summary.MaxDistance = math.Max(summary.MaxDistance, hit.Distance)
		sum += hit.Distance
	}
	summary.MeanDistance = sum / float64(len(hits))
	return summary
}
