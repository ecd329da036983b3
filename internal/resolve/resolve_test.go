package resolve

import (
	"errors"
	"math"
	"testing"

	"github.com/MJE43/dispatch-resolve-go/internal/engine"
)

func TestResolveGuaranteedSuccess(t *testing.T) {
	tests := []struct {
		name        string
		agentStats  StatVector
		requirement StatVector
	}{
		{
			name:        "exact match on every axis",
			agentStats:  StatVector{30, 30, 30, 30, 30},
			requirement: StatVector{30, 30, 30, 30, 30},
		},
		{
			name:        "no requirements at all",
			agentStats:  StatVector{0, 0, 0, 0, 0},
			requirement: StatVector{0, 0, 0, 0, 0},
		},
		{
			name:        "overshoot on every axis",
			agentStats:  StatVector{100, 90, 80, 70, 60},
			requirement: StatVector{50, 50, 50, 50, 50},
		},
		{
			name:        "zero axes carry no weight",
			agentStats:  StatVector{40, 0, 0, 0, 0},
			requirement: StatVector{40, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A fully covered team never fails, whatever the draw.
			for seed := int64(0); seed < 50; seed++ {
				verdict, err := Resolve(tt.agentStats, tt.requirement, engine.NewRand(seed))
				if err != nil {
					t.Fatalf("Resolve returned error: %v", err)
				}
				if !verdict.Success {
					t.Fatalf("seed %d: expected guaranteed success", seed)
				}
				if verdict.CoveragePercent != 100 {
					t.Fatalf("seed %d: expected coverage 100, got %f", seed, verdict.CoveragePercent)
				}
				if verdict.Sector < 0 || verdict.Sector >= AxisCount {
					t.Fatalf("seed %d: sector out of range: %d", seed, verdict.Sector)
				}
				if verdict.Distance < 0 || verdict.Distance >= 1 {
					t.Fatalf("seed %d: distance out of range: %f", seed, verdict.Distance)
				}
			}
		})
	}
}

func TestResolveCertainFailure(t *testing.T) {
	agentStats := StatVector{0, 0, 0, 0, 0}
	requirement := StatVector{40, 0, 0, 0, 0}

	for seed := int64(0); seed < 100; seed++ {
		verdict, err := Resolve(agentStats, requirement, engine.NewRand(seed))
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}

		if verdict.CoveragePercent != 0 {
			t.Fatalf("seed %d: expected coverage 0, got %f", seed, verdict.CoveragePercent)
		}
		// All the weight sits on axis 0, so the draw always lands there.
		if verdict.Sector != AxisMight {
			t.Fatalf("seed %d: expected sector 0, got %d", seed, verdict.Sector)
		}
		// Success would need the draw to hit exactly 0.0.
		if verdict.Success && verdict.Distance > 0 {
			t.Fatalf("seed %d: zero-stat team succeeded at distance %f", seed, verdict.Distance)
		}
	}
}

func TestResolveMidCoverageRate(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}

	agentStats := StatVector{25, 25, 25, 25, 25}
	requirement := StatVector{50, 50, 50, 50, 50}

	const runs = 10000
	src := engine.NewRand(12345)

	successes := 0
	for i := 0; i < runs; i++ {
		verdict, err := Resolve(agentStats, requirement, src)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if verdict.CoveragePercent != 50 {
			t.Fatalf("expected coverage 50, got %f", verdict.CoveragePercent)
		}
		if verdict.Success {
			successes++
		}
	}

	// The per-sector draw tracks the 50% shortfall without reproducing it
	// exactly; assert a loose band rather than a point value.
	rate := float64(successes) / runs
	if rate <= 0.30 || rate >= 0.70 {
		t.Errorf("mid-coverage success rate %f outside (0.30, 0.70)", rate)
	}
}

func TestResolveMonotonicity(t *testing.T) {
	requirement := StatVector{50, 30, 10, 70, 40}
	base := StatVector{20, 10, 5, 30, 15}

	baseVerdict, err := Resolve(base, requirement, engine.NewRand(1))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	for axis := 0; axis < AxisCount; axis++ {
		for _, bump := range []float64{1, 10, 100} {
			raised := base
			raised[axis] += bump

			verdict, err := Resolve(raised, requirement, engine.NewRand(1))
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if verdict.CoveragePercent < baseVerdict.CoveragePercent {
				t.Errorf("raising axis %d by %f lowered coverage: %f -> %f",
					axis, bump, baseVerdict.CoveragePercent, verdict.CoveragePercent)
			}
		}
	}
}

func TestResolveCoverageVector(t *testing.T) {
	agentStats := StatVector{25, 60, 0, 100, 10}
	requirement := StatVector{50, 50, 0, 50, 40}

	cov := Coverage(agentStats, requirement)

	want := CoverageVector{0.5, 1, 1, 1, 0.25}
	for i := range cov {
		if math.Abs(cov[i]-want[i]) > 1e-12 {
			t.Errorf("coverage[%d] = %f, want %f", i, cov[i], want[i])
		}
		if cov[i] < 0 || cov[i] > 1 {
			t.Errorf("coverage[%d] out of [0,1]: %f", i, cov[i])
		}
	}
}

func TestResolveRejectsInvalidInput(t *testing.T) {
	valid := StatVector{10, 10, 10, 10, 10}

	tests := []struct {
		name        string
		agentStats  StatVector
		requirement StatVector
		wantErr     error
	}{
		{
			name:        "negative requirement",
			agentStats:  valid,
			requirement: StatVector{10, -1, 10, 10, 10},
			wantErr:     ErrNegativeStat,
		},
		{
			name:        "negative agent stat",
			agentStats:  StatVector{-5, 10, 10, 10, 10},
			requirement: valid,
			wantErr:     ErrNegativeStat,
		},
		{
			name:        "NaN requirement",
			agentStats:  valid,
			requirement: StatVector{math.NaN(), 10, 10, 10, 10},
			wantErr:     ErrNonFiniteStat,
		},
		{
			name:        "infinite agent stat",
			agentStats:  StatVector{math.Inf(1), 10, 10, 10, 10},
			requirement: valid,
			wantErr:     ErrNonFiniteStat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.agentStats, tt.requirement, engine.NewRand(0))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveDeterministicReplay(t *testing.T) {
	agentStats := StatVector{25, 40, 10, 55, 30}
	requirement := StatVector{50, 50, 50, 50, 50}
	seeds := engine.Seeds{Server: "replay_server", Client: "replay_client"}

	for nonce := uint64(1); nonce <= 20; nonce++ {
		a, err := Resolve(agentStats, requirement, engine.NewByteGenerator(seeds, nonce, 0))
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		b, err := Resolve(agentStats, requirement, engine.NewByteGenerator(seeds, nonce, 0))
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if a != b {
			t.Fatalf("nonce %d: replay diverged: %+v != %+v", nonce, a, b)
		}
	}
}

func TestWeightedSectorDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}

	// Axis 3 carries 70% of the weight and must dominate the draw.
	requirement := StatVector{10, 10, 0, 70, 10}
	agentStats := StatVector{0, 0, 0, 0, 0}

	const runs = 10000
	src := engine.NewRand(777)

	counts := [AxisCount]int{}
	for i := 0; i < runs; i++ {
		verdict, err := Resolve(agentStats, requirement, src)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		counts[verdict.Sector]++
	}

	if counts[2] != 0 {
		t.Errorf("zero-weight axis drawn %d times", counts[2])
	}

	share := float64(counts[3]) / runs
	if share < 0.65 || share > 0.75 {
		t.Errorf("dominant axis share %f outside (0.65, 0.75)", share)
	}
}

func TestAxisName(t *testing.T) {
	if AxisName(AxisMight) != "might" || AxisName(AxisCharm) != "charm" {
		t.Error("axis names out of canonical order")
	}
	if AxisName(-1) != "unknown" || AxisName(AxisCount) != "unknown" {
		t.Error("out-of-range axis should be unknown")
	}
}
