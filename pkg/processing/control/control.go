package control

import (
	"math"

	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing/physics"
	"github.com/mpapenbr/binkrace/pkg/track"
)

// Policy turns the current state of a racer into velocity and heading deltas.
// Implementations must not modify the racer.
type Policy interface {
	Intent(
		r *model.Racer,
		s model.Surface,
		t *model.Track,
		elapsed, dt float64,
		in model.Input,
	) physics.Intent
}

const (
	HumanForwardThrust = 230.0
	HumanBrakeThrust   = 160.0
	HumanDriftThrust   = 45.0
	HumanSteerBase     = 1.8
	HumanSteerSpeedCap = 260.0
	HumanSteerDivisor  = 160.0

	AILead          = 0.24
	AIWobble        = 0.02
	AITurnRate      = 1.9
	AIRecoveryRate  = 2.5
	AIThrustBase    = 210.0
	AIThrustSwing   = 18.0
	AIBoostStrength = 0.65
)

// Human drives with the input snapshot of the player.
type Human struct{}

// Autonomous follows the lane a little ahead of its current bearing.
type Autonomous struct{}

var (
	human      Policy = Human{}
	autonomous Policy = Autonomous{}
)

// For returns the policy matching the racer's controller.
func For(r *model.Racer) Policy {
	if r.IsPlayer {
		return human
	}
	return autonomous
}

//nolint:whitespace // editor/linter issue
func (Human) Intent(
	r *model.Racer,
	s model.Surface,
	_ *model.Track,
	_, dt float64,
	in model.Input,
) physics.Intent {
	forward := model.Direction(r.Heading)
	thrust := in.Throttle()*HumanForwardThrust - in.Brake()*HumanBrakeThrust

	ret := physics.Intent{
		Thrust: model.Vec2{X: forward.X * thrust * dt, Y: forward.Y * thrust * dt},
	}
	// steering gets sharper with speed, measured after this tick's thrust
	speed := math.Hypot(r.Velocity.X+ret.Thrust.X, r.Velocity.Y+ret.Thrust.Y)
	ret.Turn = in.Steer() * (HumanSteerBase + math.Min(speed, HumanSteerSpeedCap)/HumanSteerDivisor) * dt

	if in.Drift {
		lateral := model.Vec2{X: -forward.Y, Y: forward.X}
		ret.Lateral = model.Vec2{X: lateral.X * HumanDriftThrust * dt, Y: lateral.Y * HumanDriftThrust * dt}
	}
	if s.Boost > 0 {
		ret.Boost = model.Vec2{X: forward.X * s.Boost * dt, Y: forward.Y * s.Boost * dt}
	}
	return ret
}

//nolint:whitespace // editor/linter issue
func (Autonomous) Intent(
	r *model.Racer,
	s model.Surface,
	t *model.Track,
	elapsed, dt float64,
	_ model.Input,
) physics.Intent {
	forward := model.Direction(r.Heading)
	bearing := track.Bearing(t, r.Position)
	target := track.NormalizeAngle(bearing + AILead)
	current := track.NormalizeAngle(bearing)
	diff := track.ShortestAngle(target, current)
	diff += math.Sin(elapsed*0.8+r.StartOffset*5) * AIWobble

	thrust := AIThrustBase + math.Sin(elapsed*1.2+r.StartOffset*9)*AIThrustSwing
	ret := physics.Intent{
		Thrust: model.Vec2{X: forward.X * thrust * dt, Y: forward.Y * thrust * dt},
		Turn:   diff * AITurnRate * dt,
	}
	if s.Boost > 0 {
		ret.Boost = model.Vec2{
			X: forward.X * s.Boost * dt * AIBoostStrength,
			Y: forward.Y * s.Boost * dt * AIBoostStrength,
		}
	}
	if s.OffTrack {
		ret.Recovery = diff * AIRecoveryRate * dt
	}
	return ret
}
