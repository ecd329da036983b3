package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
)

func TestPentagonIdempotent(t *testing.T) {
	stats := resolve.StatVector{13, 47, 81, 92, 5}

	a := Pentagon(stats)
	b := Pentagon(stats)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i], "vertex %d not bit-identical", i)
	}
}

func TestPentagonShape(t *testing.T) {
	stats := resolve.StatVector{100, 100, 100, 100, 100}
	ring := Pentagon(stats)

	require.Len(t, ring, resolve.AxisCount+1)
	assert.Equal(t, ring[0], ring[len(ring)-1], "ring must be closed")

	for i := 0; i < resolve.AxisCount; i++ {
		r := Length(orb.Point(ring[i]))
		assert.InDelta(t, RadiusScale, r, 1e-12, "vertex %d radius", i)
	}

	// First vertex sits at the top; the ring winds counter-clockwise.
	assert.InDelta(t, 0, ring[0][0], 1e-12)
	assert.InDelta(t, RadiusScale, ring[0][1], 1e-12)
	assert.Positive(t, Area(ring), "counter-clockwise ring must have positive area")

	// Centroid of a regular pentagon is the origin.
	c := Centroid(ring)
	assert.InDelta(t, 0, c[0], 1e-9)
	assert.InDelta(t, 0, c[1], 1e-9)
}

func TestVertexRadiusNotClamped(t *testing.T) {
	// Over-ceiling stats keep scaling linearly; clamping would break the
	// containment identity for large missions.
	assert.InDelta(t, 2*RadiusScale, VertexRadius(2*MaxStat), 1e-12)
}

func TestTargetPointOnAxis(t *testing.T) {
	stats := resolve.StatVector{50, 50, 50, 50, 50}

	for sector := 0; sector < resolve.AxisCount; sector++ {
		pt := TargetPoint(sector, 0.5, stats)
		dir := AxisDirection(sector)
		wantR := 0.5 * VertexRadius(stats[sector])

		assert.InDelta(t, wantR, Length(pt), 1e-12, "sector %d", sector)
		assert.InDelta(t, wantR, Dot(pt, dir), 1e-12, "sector %d projection", sector)
	}

	// Distance 0 is the origin regardless of sector.
	assert.Equal(t, orb.Point{}, TargetPoint(2, 0, stats))
}

func TestContainmentMatchesVerdictComparison(t *testing.T) {
	// The core reconciliation identity: the target point for (sector, d)
	// against the requirement pentagon falls inside the coverage pentagon
	// exactly when d·req[sector] <= agent[sector].
	rng := rand.New(rand.NewSource(4242))

	checked := 0
	for i := 0; i < 5000; i++ {
		var agent, req resolve.StatVector
		for a := 0; a < resolve.AxisCount; a++ {
			agent[a] = math.Floor(rng.Float64() * 120)
			req[a] = math.Floor(rng.Float64()*120) + 1
		}

		sector := rng.Intn(resolve.AxisCount)
		d := rng.Float64()

		raw := d * req[sector]
		// Skip knife-edge draws where float noise decides both sides.
		if math.Abs(raw-agent[sector]) < 1e-6 {
			continue
		}
		// A degenerate coverage pentagon contains nothing.
		if Area(Pentagon(agent)) < 1e-9 {
			continue
		}

		pt := TargetPoint(sector, d, req)
		contained := ContainsWithin(Pentagon(agent), pt, 1e-9)
		want := raw <= agent[sector]

		require.Equal(t, want, contained,
			"agent=%v req=%v sector=%d d=%f raw=%f", agent, req, sector, d, raw)
		checked++
	}

	require.Greater(t, checked, 4000, "fuzz skipped too many cases")
}

func TestContainsWithinCollapsedEdge(t *testing.T) {
	// A zero stat adjacent to the sector puts that vertex on the origin and
	// the boundary edge along the sector axis itself, so an on-axis target
	// inside the vertex radius lies exactly on the boundary. The computed
	// axis direction carries rounding (cos 90° is ~6e-17, not 0), which can
	// push the point a hair off the edge.
	cases := []struct {
		name   string
		agent  resolve.StatVector
		req    resolve.StatVector
		sector int
		d      float64
	}{
		{
			name:   "zero trailing neighbor",
			agent:  resolve.StatVector{103, 17, 134, 145, 0},
			req:    resolve.StatVector{126, 63, 42, 134, 95},
			sector: 0,
			d:      0.75,
		},
		{
			name:   "zero leading neighbor",
			agent:  resolve.StatVector{18, 0, 69, 105, 48},
			req:    resolve.StatVector{50, 50, 70, 50, 50},
			sector: 2,
			d:      0.9,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.d * tt.req[tt.sector]
			require.LessOrEqual(t, raw, tt.agent[tt.sector], "case must be a success")

			pt := TargetPoint(tt.sector, tt.d, tt.req)
			assert.True(t, ContainsWithin(Pentagon(tt.agent), pt, 1e-9))
		})
	}
}

func TestBoundaryDistance(t *testing.T) {
	ring := Pentagon(resolve.StatVector{100, 100, 100, 100, 100})

	// Distance from the origin to the nearest edge is the apothem.
	assert.InDelta(t, math.Cos(math.Pi/5), BoundaryDistance(ring, orb.Point{}), 1e-12)

	// A vertex is on the boundary.
	assert.InDelta(t, 0, BoundaryDistance(ring, ring[0]), 1e-15)

	// A point just beyond the top vertex is as far from the boundary as it
	// is from the vertex.
	assert.InDelta(t, 0.25, BoundaryDistance(ring, orb.Point{0, 1.25}), 1e-12)

	// No edges, no boundary.
	assert.True(t, math.IsInf(BoundaryDistance(orb.Ring{{0, 0}}, orb.Point{1, 1}), 1))
}

func TestEdgesPointInward(t *testing.T) {
	stats := resolve.StatVector{80, 60, 90, 70, 50}
	ring := Pentagon(stats)
	edges := Edges(ring)

	require.Len(t, edges, resolve.AxisCount)

	c := Centroid(ring)
	for i, e := range edges {
		sd := e.SignedDistance(c)
		assert.Positive(t, sd, "edge %d: centroid must be on the interior side", i)
	}
}

func TestEdgeSignedDistanceRegular(t *testing.T) {
	stats := resolve.StatVector{100, 100, 100, 100, 100}
	edges := Edges(Pentagon(stats))

	// Apothem of a regular pentagon with circumradius 1.
	want := math.Cos(math.Pi / 5)
	for i, e := range edges {
		assert.InDelta(t, want, e.SignedDistance(orb.Point{}), 1e-12, "edge %d", i)
	}
}

func TestDegenerateEdges(t *testing.T) {
	ring := Pentagon(resolve.StatVector{})
	edges := Edges(ring)

	for _, e := range edges {
		assert.Equal(t, orb.Point{}, e.Normal)
		assert.True(t, math.IsInf(e.SignedDistance(orb.Point{0.5, 0.5}), 1))
	}
	assert.InDelta(t, 0, Area(ring), 1e-12)
}

func TestVectorHelpers(t *testing.T) {
	a := orb.Point{3, 4}

	assert.Equal(t, 5.0, Length(a))
	assert.Equal(t, orb.Point{4, 6}, Add(a, orb.Point{1, 2}))
	assert.Equal(t, orb.Point{2, 2}, Sub(a, orb.Point{1, 2}))
	assert.Equal(t, orb.Point{6, 8}, Scale(a, 2))
	assert.Equal(t, 11.0, Dot(a, orb.Point{1, 2}))
	assert.Equal(t, orb.Point{}, Normalize(orb.Point{}))

	unit := Normalize(a)
	assert.InDelta(t, 1, Length(unit), 1e-12)

	rot := Rotate(orb.Point{1, 0}, math.Pi/2)
	assert.InDelta(t, 0, rot[0], 1e-12)
	assert.InDelta(t, 1, rot[1], 1e-12)
}
