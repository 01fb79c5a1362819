package track

import (
	"math"

	"github.com/mpapenbr/binkrace/pkg/model"
)

const (
	outerTolerance = 1.015

	baseGrip     = 0.78
	baseMaxSpeed = 220.0

	roughGrip     = 0.68
	roughMaxSpeed = 190.0
	detailHigh    = 1.06
	detailLow     = 0.78

	laneGrip     = 0.98
	laneMaxSpeed = 255.0
	laneLow      = 0.88
	laneHigh     = 1.12

	padGrip      = 1.05
	padMaxSpeed  = 290.0
	padBoost     = 230.0
	padLaneWidth = 0.09
)

var (
	offOuterSurface = model.Surface{Grip: 0.25, MaxSpeed: 80, OffTrack: true}
	infieldSurface  = model.Surface{Grip: 0.3, MaxSpeed: 65, OffTrack: true}
)

// ClassifySurface returns the surface at pos.
func ClassifySurface(t *model.Track, pos model.Vec2) model.Surface {
	offset := pos.Sub(t.Center)
	if EllipseValue(offset, t.Outer) > outerTolerance {
		return offOuterSurface
	}
	if EllipseValue(offset, t.Inner) < 1 {
		return infieldSurface
	}

	angle := AngleAt(t, pos)
	laneDistance := NormalizedLaneDistance(t, pos, t.Lane)
	detailDistance := NormalizedLaneDistance(t, pos, t.Detail)

	ret := model.Surface{Grip: baseGrip, MaxSpeed: baseMaxSpeed}
	if detailDistance > detailHigh || detailDistance < detailLow {
		ret.Grip = roughGrip
		ret.MaxSpeed = roughMaxSpeed
	}
	if laneDistance > laneLow && laneDistance < laneHigh {
		ret.Grip = laneGrip
		ret.MaxSpeed = laneMaxSpeed
	}
	// pads may overlap, the first one in list order wins
	for _, pad := range t.BoostPads {
		diff := ShortestAngle(angle, pad.Angle)
		if math.Abs(diff) < pad.Span/2 && math.Abs(laneDistance-1) < padLaneWidth {
			ret.Boost = padBoost
			ret.Grip = padGrip
			ret.MaxSpeed = padMaxSpeed
			break
		}
	}
	return ret
}
