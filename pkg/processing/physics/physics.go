package physics

import (
	"github.com/mpapenbr/binkrace/pkg/model"
)

const (
	Drag         = 0.68
	GripPenalty  = 1.4
	MinGrip      = 0.2
	MaxGrip      = 1.25
	SpeedCapSlip = 50.0
)

// Intent holds the deltas a control policy wants to apply in one tick.
// Velocity deltas are applied in the order Thrust, Lateral, Boost and the
// heading deltas in the order Turn, Recovery.
type Intent struct {
	Thrust   model.Vec2
	Lateral  model.Vec2
	Boost    model.Vec2
	Turn     float64
	Recovery float64
}

// Apply adds the intent to the racer's velocity and heading. Position is not touched.
func Apply(r *model.Racer, in Intent) {
	r.Velocity.X += in.Thrust.X
	r.Velocity.Y += in.Thrust.Y
	r.Velocity.X += in.Lateral.X
	r.Velocity.Y += in.Lateral.Y
	r.Velocity.X += in.Boost.X
	r.Velocity.Y += in.Boost.Y
	r.Heading += in.Turn
	r.Heading += in.Recovery
}

// Integrate damps the velocity for the given surface, caps the speed and moves
// the racer. Both damping factors are applied per tick with the tick's dt.
func Integrate(r *model.Racer, dt float64, s model.Surface) {
	grip := clamp(s.Grip, MinGrip, MaxGrip)
	drag := 1 - Drag*dt
	r.Velocity.X *= drag
	r.Velocity.Y *= drag
	slip := 1 - (1-grip)*GripPenalty*dt
	r.Velocity.X *= slip
	r.Velocity.Y *= slip

	limit := s.MaxSpeed + SpeedCapSlip
	if speed := r.Speed(); speed > limit {
		scale := limit / speed
		r.Velocity.X *= scale
		r.Velocity.Y *= scale
	}

	r.Position.X += r.Velocity.X * dt
	r.Position.Y += r.Velocity.Y * dt
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
