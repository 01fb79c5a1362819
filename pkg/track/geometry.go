package track

import (
	"math"

	"github.com/mpapenbr/binkrace/pkg/model"
)

const twoPi = math.Pi * 2

// NormalizeAngle maps a into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}

// ShortestAngle returns the signed difference a-b folded into [-π, π].
func ShortestAngle(a, b float64) float64 {
	diff := a - b
	for diff < -math.Pi {
		diff += twoPi
	}
	for diff > math.Pi {
		diff -= twoPi
	}
	return diff
}

// EllipseValue is (dx/rx)² + (dy/ry)² for an offset from the track center.
// 1 on the boundary, <1 inside, >1 outside.
func EllipseValue(offset model.Vec2, e model.Ellipse) float64 {
	return (offset.X*offset.X)/(e.RX*e.RX) + (offset.Y*offset.Y)/(e.RY*e.RY)
}

// AngleAt is the bearing of pos around the center, corrected for the aspect
// ratio of the outer ellipse and normalized to [0, 2π).
func AngleAt(t *model.Track, pos model.Vec2) float64 {
	return NormalizeAngle(Bearing(t, pos))
}

// Bearing is AngleAt without normalization, in (-π, π].
func Bearing(t *model.Track, pos model.Vec2) float64 {
	dx := pos.X - t.Center.X
	dy := pos.Y - t.Center.Y
	return math.Atan2(dy/t.Outer.RY, dx/t.Outer.RX)
}

// NormalizedLaneDistance is the distance from the center in the unit circle
// space of e. Exactly 1 on the ellipse.
func NormalizedLaneDistance(t *model.Track, pos model.Vec2, e model.Ellipse) float64 {
	dx := (pos.X - t.Center.X) / e.RX
	dy := (pos.Y - t.Center.Y) / e.RY
	return math.Sqrt(dx*dx + dy*dy)
}

// LanePoint returns the point on the lane ellipse at parameter angle a.
func LanePoint(t *model.Track, a float64) model.Vec2 {
	return model.Vec2{
		X: t.Center.X + math.Cos(a)*t.Lane.RX,
		Y: t.Center.Y + math.Sin(a)*t.Lane.RY,
	}
}

// LaneTarget returns the lane point lead radians ahead of pos.
func LaneTarget(t *model.Track, pos model.Vec2, lead float64) model.Vec2 {
	return LanePoint(t, AngleAt(t, pos)+lead)
}
