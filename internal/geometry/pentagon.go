// Package geometry builds the requirement and coverage pentagons from stat
// vectors and provides the planar primitives the confirmation simulator
// steps against.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
)

const (
	// MaxStat is the normalization ceiling for vertex radii. It keeps
	// pentagons comparable across missions of different scale.
	MaxStat = 100.0

	// RadiusScale is the vertex radius of an axis sitting exactly at MaxStat.
	RadiusScale = 1.0
)

// Axis i sits at 90° + i·72° in standard math orientation: a
// counter-clockwise ring starting at the top, vertex order matching the
// canonical axis order in the resolve package. Both pentagons and the
// landing target use this one convention; mixing conventions between the
// requirement and coverage pentagons would break the containment check that
// reconciles the simulation with the verdict.
func axisAngle(i int) float64 {
	return (90 + 72*float64(i)) * math.Pi / 180
}

// AxisDirection returns the unit vector pointing along axis i.
func AxisDirection(i int) orb.Point {
	a := axisAngle(i)
	return orb.Point{math.Cos(a), math.Sin(a)}
}

// VertexRadius maps a stat value to a vertex radius. Values above MaxStat
// are deliberately not clamped: the containment identity between pentagons
// and the verdict only holds if both sides scale linearly all the way up.
func VertexRadius(stat float64) float64 {
	return RadiusScale * stat / MaxStat
}

// Pentagon builds the closed 5-vertex ring for a stat vector, centered on
// the origin. Identical input yields bit-identical vertices.
func Pentagon(stats resolve.StatVector) orb.Ring {
	ring := make(orb.Ring, 0, resolve.AxisCount+1)
	for i := 0; i < resolve.AxisCount; i++ {
		dir := AxisDirection(i)
		r := VertexRadius(stats[i])
		ring = append(ring, orb.Point{dir[0] * r, dir[1] * r})
	}
	ring = append(ring, ring[0])
	return ring
}

// TargetPoint locates the landing target: distance is the normalized
// fraction of the stat vector's vertex radius on the sector axis.
func TargetPoint(sector int, distance float64, stats resolve.StatVector) orb.Point {
	dir := AxisDirection(sector)
	r := distance * VertexRadius(stats[sector])
	return orb.Point{dir[0] * r, dir[1] * r}
}

// Contains reports whether pt falls inside the ring, boundary included.
func Contains(ring orb.Ring, pt orb.Point) bool {
	return planar.RingContains(ring, pt)
}

// ContainsWithin reports whether pt is inside the ring or within eps of its
// boundary. A zero stat collapses a vertex onto the origin and lays the
// adjacent boundary edge along a neighboring axis; a point constructed on
// that axis then sits on the edge only up to rounding in the direction
// vector, and the raw ray-crossing test may see it a hair outside.
func ContainsWithin(ring orb.Ring, pt orb.Point, eps float64) bool {
	if planar.RingContains(ring, pt) {
		return true
	}
	return BoundaryDistance(ring, pt) <= eps
}

// BoundaryDistance returns the distance from pt to the nearest point on the
// ring's boundary, +Inf for rings with no edges.
func BoundaryDistance(ring orb.Ring, pt orb.Point) float64 {
	best := math.Inf(1)
	for i := 0; i < len(ring)-1; i++ {
		if d := segmentDistance(ring[i], ring[i+1], pt); d < best {
			best = d
		}
	}
	return best
}

// segmentDistance returns the distance from pt to the segment ab.
func segmentDistance(a, b, pt orb.Point) float64 {
	ab := Sub(b, a)
	lenSq := Dot(ab, ab)
	if lenSq == 0 {
		return Length(Sub(pt, a))
	}

	t := Dot(Sub(pt, a), ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Length(Sub(pt, Add(a, Scale(ab, t))))
}

// Centroid returns the ring's centroid.
func Centroid(ring orb.Ring) orb.Point {
	c, _ := planar.CentroidArea(ring)
	return c
}

// Area returns the ring's area.
func Area(ring orb.Ring) float64 {
	_, a := planar.CentroidArea(ring)
	return a
}

// Edge is one directed boundary segment with its inward unit normal.
// Degenerate (zero-length) edges carry a zero normal.
type Edge struct {
	Start  orb.Point
	End    orb.Point
	Normal orb.Point
}

// Edges returns the ring's directed edges. For a counter-clockwise ring the
// interior lies to the left of each edge, so the inward normal is the left
// perpendicular of the edge direction.
func Edges(ring orb.Ring) []Edge {
	if len(ring) < 2 {
		return nil
	}

	edges := make([]Edge, 0, len(ring)-1)
	for i := 0; i < len(ring)-1; i++ {
		start, end := ring[i], ring[i+1]
		d := Sub(end, start)
		length := Length(d)

		var normal orb.Point
		if length > 0 {
			normal = orb.Point{-d[1] / length, d[0] / length}
		}
		edges = append(edges, Edge{Start: start, End: end, Normal: normal})
	}
	return edges
}

// SignedDistance returns the distance from pt to the edge's supporting line,
// positive on the interior side. Degenerate edges report +Inf so callers
// skip them.
func (e Edge) SignedDistance(pt orb.Point) float64 {
	if e.Normal == (orb.Point{}) {
		return math.Inf(1)
	}
	return Dot(Sub(pt, e.Start), e.Normal)
}

// Plain 2-D vector arithmetic over orb.Point; orb itself carries none.

// Add returns a + b.
func Add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

// Sub returns a - b.
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// Scale returns v scaled by f.
func Scale(v orb.Point, f float64) orb.Point {
	return orb.Point{v[0] * f, v[1] * f}
}

// Dot returns the dot product.
func Dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

// Length returns the vector magnitude.
func Length(v orb.Point) float64 {
	return math.Hypot(v[0], v[1])
}

// Normalize returns the unit vector, or the zero vector for zero input.
func Normalize(v orb.Point) orb.Point {
	length := Length(v)
	if length == 0 {
		return orb.Point{}
	}
	return orb.Point{v[0] / length, v[1] / length}
}

// Rotate rotates v by the given angle in radians.
func Rotate(v orb.Point, radians float64) orb.Point {
	sin, cos := math.Sincos(radians)
	return orb.Point{
		v[0]*cos - v[1]*sin,
		v[0]*sin + v[1]*cos,
	}
}
