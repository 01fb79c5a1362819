package control

import (
	"math"
	"sync"

	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/track"
)

// InputSource supplies the human input snapshot once per tick.
type InputSource interface {
	Input(state *model.RaceState) model.Input
}

// Static returns whatever was set last. It is used by network clients which
// update the snapshot from other goroutines.
type Static struct {
	mutex sync.Mutex
	in    model.Input
}

func NewStatic(in model.Input) *Static {
	return &Static{in: in}
}

func (s *Static) Set(in model.Input) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.in = in
}

func (s *Static) Input(*model.RaceState) model.Input {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.in
}

// LaneKeeper presses keys for the player so that it heads for a lane point a
// little ahead. Used for headless races and demos.
type LaneKeeper struct {
	Track    *model.Track
	Lead     float64 // radians ahead on the lane
	Deadband float64 // heading error that is tolerated without steering
}

func NewLaneKeeper(t *model.Track) *LaneKeeper {
	return &LaneKeeper{Track: t, Lead: 0.3, Deadband: 0.04}
}

func (k *LaneKeeper) Input(state *model.RaceState) model.Input {
	if state == nil || state.Player == nil {
		return model.Input{}
	}
	p := state.Player
	target := track.LaneTarget(k.Track, p.Position, k.Lead)
	desired := math.Atan2(target.Y-p.Position.Y, target.X-p.Position.X)
	diff := track.ShortestAngle(desired, track.NormalizeAngle(p.Heading))
	return model.Input{
		Forward: true,
		Right:   diff > k.Deadband,
		Left:    diff < -k.Deadband,
	}
}
