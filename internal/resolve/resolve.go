// Package resolve implements the coverage and verdict calculator: given the
// combined stats of the agents assigned to a task and the task's per-axis
// requirements, it decides whether the attempt succeeds and where on the
// requirement chart the confirmation marker must come to rest.
package resolve

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/MJE43/dispatch-resolve-go/internal/engine"
)

// AxisCount is the number of stat dimensions shared by agents and tasks.
const AxisCount = 5

// Axis indices in canonical order. The geometry package lays pentagon
// vertices out in this same order, so the two must never diverge.
const (
	AxisMight = iota
	AxisWit
	AxisAgility
	AxisFortitude
	AxisCharm
)

var axisNames = [AxisCount]string{"might", "wit", "agility", "fortitude", "charm"}

// AxisName returns the canonical lowercase name for an axis index.
func AxisName(i int) string {
	if i < 0 || i >= AxisCount {
		return "unknown"
	}
	return axisNames[i]
}

// StatVector holds one value per axis. Instances are immutable inputs to a
// resolution; the engine never mutates them.
type StatVector [AxisCount]float64

// CoverageVector holds per-axis coverage ratios, each clamped to [0,1].
type CoverageVector [AxisCount]float64

var (
	// ErrNegativeStat indicates a stat vector with a negative axis. This is
	// a configuration error from the upstream task generator or roster
	// system, not a runtime condition to recover from.
	ErrNegativeStat = errors.New("stat vector axis must be non-negative")

	// ErrNonFiniteStat indicates a NaN or infinite axis value.
	ErrNonFiniteStat = errors.New("stat vector axis must be finite")
)

// Validate rejects negative and non-finite axis values.
func (v StatVector) Validate() error {
	for _, s := range v {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ErrNonFiniteStat
		}
		if s < 0 {
			return ErrNegativeStat
		}
	}
	return nil
}

// Total returns the sum across all axes.
func (v StatVector) Total() float64 {
	total := 0.0
	for _, s := range v {
		total += s
	}
	return total
}

// Verdict is the complete outcome of one resolution.
type Verdict struct {
	Success         bool           `json:"success"`
	CoveragePercent float64        `json:"coverage_percent"`
	Coverage        CoverageVector `json:"coverage"`

	// Sector and Distance locate the landing target: the axis the outcome
	// was decided on and the normalized distance along it. For a guaranteed
	// success they are cosmetic.
	Sector   int     `json:"sector"`
	Distance float64 `json:"distance"`
}

// Coverage computes per-axis coverage ratios. A zero requirement on an axis
// counts as fully covered.
func Coverage(agentStats, requirement StatVector) CoverageVector {
	var cov CoverageVector
	for i := 0; i < AxisCount; i++ {
		if requirement[i] <= 0 {
			cov[i] = 1
			continue
		}
		cov[i] = math.Min(agentStats[i]/requirement[i], 1)
	}
	return cov
}

var hundred = decimal.NewFromInt(100)

// coveragePercent computes the requirement-weighted coverage average in
// decimal arithmetic. The weighted sum of clamped ratios collapses to
// sum(min(agent, req)) / sum(req), and doing that division in decimal keeps
// the guaranteed-success boundary exact: a team that meets every requirement
// lands on precisely 100, never 99.999....
func coveragePercent(agentStats, requirement StatVector) decimal.Decimal {
	covered := decimal.Zero
	total := decimal.Zero
	for i := 0; i < AxisCount; i++ {
		if requirement[i] <= 0 {
			continue
		}
		req := decimal.NewFromFloat(requirement[i])
		total = total.Add(req)
		covered = covered.Add(decimal.Min(decimal.NewFromFloat(agentStats[i]), req))
	}

	if total.IsZero() {
		return hundred
	}
	return covered.Mul(hundred).Div(total)
}

// Resolve computes the verdict for one resolution. It is pure apart from the
// landing-target draw, which consumes at most two floats from src: one for
// the sector, one for the distance. Callers replaying a resolution must hand
// in a Source positioned at the same cursor.
//
// The per-sector draw is deliberately sharper than the aggregate percentage:
// the success probability rises monotonically with coverage and pins to 1 at
// full coverage, but at partial coverage it tracks the per-axis shortfalls
// rather than the weighted average. See the scan package for tooling that
// measures the realized rate.
func Resolve(agentStats, requirement StatVector, src engine.Source) (Verdict, error) {
	if err := requirement.Validate(); err != nil {
		return Verdict{}, err
	}
	if err := agentStats.Validate(); err != nil {
		return Verdict{}, err
	}

	verdict := Verdict{Coverage: Coverage(agentStats, requirement)}

	percent := coveragePercent(agentStats, requirement)
	if percent.GreaterThanOrEqual(hundred) {
		// Fully covered: success is unconditional and the landing target is
		// purely for display.
		verdict.Success = true
		verdict.CoveragePercent = 100
		verdict.Sector = uniformSector(src.NextFloat())
		verdict.Distance = src.NextFloat()
		return verdict, nil
	}
	verdict.CoveragePercent = percent.InexactFloat64()

	verdict.Sector = weightedSector(requirement, src.NextFloat())
	weight := requirement[verdict.Sector]
	if weight <= 0 {
		// Unreachable through the weighted draw except at float edge cases;
		// a zero-requirement axis cannot fail.
		verdict.Success = true
		verdict.Distance = 0
		return verdict, nil
	}

	// The draw simulates a random strike on the chosen axis; the agents'
	// stat there must meet or exceed it.
	raw := src.NextFloat() * weight
	verdict.Success = agentStats[verdict.Sector] >= raw
	verdict.Distance = raw / weight

	return verdict, nil
}

// uniformSector maps a float in [0,1) to an axis index.
func uniformSector(f float64) int {
	sector := int(f * AxisCount)
	if sector >= AxisCount {
		sector = AxisCount - 1
	}
	return sector
}

// weightedSector draws an axis with probability proportional to its
// requirement. Axes with larger requirements occupy a proportionally larger
// share of the danger area.
func weightedSector(requirement StatVector, f float64) int {
	total := requirement.Total()
	target := f * total

	cumulative := 0.0
	for i := 0; i < AxisCount; i++ {
		cumulative += requirement[i]
		if target < cumulative {
			return i
		}
	}
	// f rounds up to the total weight; land on the last weighted axis.
	for i := AxisCount - 1; i >= 0; i-- {
		if requirement[i] > 0 {
			return i
		}
	}
	return AxisCount - 1
}
