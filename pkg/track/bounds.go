package track

import (
	"math"

	"github.com/mpapenbr/binkrace/pkg/model"
)

const (
	outerPullIn      = 0.995
	outerVelocityCut = 0.45
	innerPushOut     = 1.005
	innerVelocityCut = 0.35
)

// ClampToBounds projects a racer that left the track back onto it and damps its
// velocity. The outer and inner checks run one after the other.
func ClampToBounds(t *model.Track, r *model.Racer) {
	offset := r.Position.Sub(t.Center)

	if outer := EllipseValue(offset, t.Outer); outer > 1 {
		factor := 1 / math.Sqrt(outer)
		offset.X *= factor * outerPullIn
		offset.Y *= factor * outerPullIn
		r.Position = t.Center.Add(offset)
		r.Velocity.X *= outerVelocityCut
		r.Velocity.Y *= outerVelocityCut
	}

	// the exact center has no radial direction to push along
	if inner := EllipseValue(offset, t.Inner); inner < 1 && inner > 0 {
		factor := 1 / math.Sqrt(inner)
		offset.X *= factor * innerPushOut
		offset.Y *= factor * innerPushOut
		r.Position = t.Center.Add(offset)
		r.Velocity.X *= innerVelocityCut
		r.Velocity.Y *= innerVelocityCut
	}
}

// Place puts a racer on its grid slot: on the lane at 1.5π plus its start
// offset, moved outwards by offset*12 and facing up.
func Place(t *model.Track, r *model.Racer) {
	angle := math.Pi*1.5 + r.StartOffset
	r.Heading = -math.Pi / 2
	r.Position = model.Vec2{
		X: t.Center.X + math.Cos(angle)*(t.Lane.RX+r.StartOffset*12),
		Y: t.Center.Y + math.Sin(angle)*(t.Lane.RY+r.StartOffset*12),
	}
	r.LastAngle = AngleAt(t, r.Position)
}
