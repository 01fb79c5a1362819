//nolint:funlen // ok for tests
package race

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing/control"
	"github.com/mpapenbr/binkrace/pkg/track"
)

// running returns a processor whose race just got the green flag.
func running(t *testing.T, opts ...RaceProcessorOption) *RaceProcessor {
	t.Helper()
	p := NewRaceProcessor(opts...)
	_, err := p.Start()
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		p.Tick(0.5, model.Input{})
	}
	require.Equal(t, model.PhaseRunning, p.State().Phase)
	return p
}

func TestCanTransition(t *testing.T) {
	allowed := map[model.Phase][]model.Phase{
		model.PhaseIdle:      {model.PhaseCountdown},
		model.PhaseCountdown: {model.PhaseCountdown, model.PhaseRunning, model.PhaseIdle},
		model.PhaseRunning:   {model.PhaseFinished, model.PhaseCountdown, model.PhaseIdle},
		model.PhaseFinished:  {model.PhaseCountdown, model.PhaseIdle},
	}
	all := []model.Phase{
		model.PhaseIdle, model.PhaseCountdown, model.PhaseRunning, model.PhaseFinished,
	}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				want = want || a == to
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestNewRaceProcessor(t *testing.T) {
	p := NewRaceProcessor()
	s := p.State()
	assert.Equal(t, model.PhaseIdle, s.Phase)
	require.Len(t, s.Racers, 4)
	require.NotNil(t, s.Player)
	assert.Equal(t, "You", s.Player.Name)
	assert.Same(t, s.Racers[0], s.Player)
	assert.Equal(t, 3, s.TotalLaps)
	assert.Equal(t, 0, s.Position)
	for _, r := range s.Racers {
		assert.InDelta(t, -math.Pi/2, r.Heading, 1e-12)
	}

	_, err := p.Reset()
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestStart(t *testing.T) {
	p := NewRaceProcessor(WithTotalLaps(5), WithRoster([]model.RacerSpec{
		{Name: "A", IsPlayer: true},
		{Name: "B", StartOffset: 0.2},
	}))
	oldID := p.State().ID

	events, err := p.Start()
	require.NoError(t, err)
	assert.Equal(t, []model.Event{{Type: model.EventPhaseChanged, Phase: model.PhaseCountdown}}, events)

	s := p.State()
	assert.NotEqual(t, oldID, s.ID)
	assert.Equal(t, model.PhaseCountdown, s.Phase)
	assert.Equal(t, 3, s.Countdown)
	assert.Equal(t, 5, s.TotalLaps)
	assert.Equal(t, 1, s.CurrentLap())
	require.Len(t, s.Racers, 2)
	assert.Equal(t, "A", s.Player.Name)
	assert.GreaterOrEqual(t, s.Position, 1)

	// a restart during the countdown is allowed and builds a new race
	_, err = p.Start()
	require.NoError(t, err)
	assert.NotSame(t, s, p.State())
}

func TestCountdown(t *testing.T) {
	p := NewRaceProcessor()
	_, err := p.Start()
	require.NoError(t, err)
	grid := p.State().Racers[0].Position

	wantCount := []int{3, 2, 2, 1, 1, 0}
	for i, want := range wantCount {
		events := p.Tick(0.5, model.Input{Forward: true})
		assert.Equal(t, want, p.State().Countdown, "tick %d", i)
		if i < len(wantCount)-1 {
			assert.Empty(t, events)
			assert.Equal(t, model.PhaseCountdown, p.State().Phase)
		} else {
			assert.Equal(t, []model.Event{{Type: model.EventPhaseChanged, Phase: model.PhaseRunning}}, events)
		}
	}
	s := p.State()
	assert.Equal(t, model.PhaseRunning, s.Phase)
	assert.InDelta(t, 0.65, s.GoTimer, 1e-12)
	assert.Zero(t, s.Elapsed)
	assert.Equal(t, grid, s.Racers[0].Position, "nobody moves during the countdown")

	p.Tick(0.5, model.Input{})
	assert.InDelta(t, 0.15, p.State().GoTimer, 1e-12)
	assert.InDelta(t, 0.5, p.State().Elapsed, 1e-12)
	p.Tick(0.5, model.Input{})
	assert.Zero(t, p.State().GoTimer)
}

func TestTickIgnoresInvalidDt(t *testing.T) {
	p := running(t)
	before := p.Snapshot()
	for _, dt := range []float64{0, -0.1, math.NaN()} {
		assert.Nil(t, p.Tick(dt, model.Input{Forward: true}))
	}
	assert.Equal(t, before, p.Snapshot())
}

func TestTickIdle(t *testing.T) {
	p := NewRaceProcessor()
	before := p.Snapshot()
	assert.Nil(t, p.Tick(0.1, model.Input{Forward: true}))
	assert.Equal(t, before, p.Snapshot())
}

func TestPlayerFinishEndsRace(t *testing.T) {
	p := running(t)
	s := p.State()
	tr := p.Track()
	player := s.Player
	player.CompletedLaps = 2
	player.Position = track.LanePoint(tr, 2*math.Pi-0.01)
	player.LastAngle = track.AngleAt(tr, player.Position)
	player.Heading = math.Pi / 2
	player.Velocity = model.Vec2{Y: 200}

	events := p.Tick(0.05, model.Input{})
	assert.Contains(t, events, model.Event{
		Type: model.EventLapCompleted, Racer: "You", Lap: 3, Elapsed: 0.05, Phase: model.PhaseRunning,
	})
	assert.Contains(t, events, model.Event{
		Type: model.EventRacerFinished, Racer: "You", Lap: 3, Elapsed: 0.05, Phase: model.PhaseRunning,
	})
	assert.Equal(t, model.Event{Type: model.EventPhaseChanged, Elapsed: 0.05, Phase: model.PhaseFinished},
		events[len(events)-1])

	assert.Equal(t, model.PhaseFinished, s.Phase)
	assert.True(t, player.Finished)
	assert.InDelta(t, 0.05, player.FinishTime, 1e-12)
	assert.Equal(t, 3, s.CurrentLap())

	// the finished phase holds everything
	before := p.Snapshot()
	assert.Nil(t, p.Tick(0.05, model.Input{Forward: true}))
	assert.Equal(t, before, p.Snapshot())

	_, err := p.Reset()
	require.NoError(t, err)
	assert.Equal(t, model.PhaseIdle, p.State().Phase)
}

func TestFinishedRacerIsFrozen(t *testing.T) {
	p := running(t)
	s := p.State()
	rival := s.Racers[1]
	rival.Finished = true
	frozen := rival.Position
	other := s.Racers[2].Position

	for i := 0; i < 120; i++ {
		p.Tick(1.0/60, model.Input{Forward: true})
	}
	assert.Equal(t, frozen, rival.Position)
	assert.Greater(t, s.Racers[2].Position.Sub(other).Len(), 10.0)
}

func TestWithPolicies(t *testing.T) {
	calls := 0
	sel := func(r *model.Racer) control.Policy {
		calls++
		return control.Autonomous{}
	}
	p := running(t, WithPolicies(sel))
	p.Tick(0.1, model.Input{})
	assert.Equal(t, 4, calls)
	// the player is driven by the autopilot and moves without input
	assert.Positive(t, p.State().Player.Speed())
}

func TestHeadlessRaceInvariants(t *testing.T) {
	p := running(t)
	keeper := control.NewLaneKeeper(p.Track())
	s := p.State()
	tr := p.Track()
	dt := 1.0 / 60

	prevLaps := make([]int, len(s.Racers))
	for i := 0; i < 180*60 && s.Phase == model.PhaseRunning; i++ {
		p.Tick(dt, keeper.Input(s))
		assert.GreaterOrEqual(t, s.Position, 1)
		assert.LessOrEqual(t, s.Position, len(s.Racers))
		for j, r := range s.Racers {
			if math.IsNaN(r.Position.X) || math.IsNaN(r.Position.Y) || math.IsNaN(r.Heading) {
				t.Fatalf("racer %s has NaN state at tick %d", r.Name, i)
			}
			if r.CompletedLaps < prevLaps[j] {
				t.Fatalf("laps of %s decreased at tick %d", r.Name, i)
			}
			prevLaps[j] = r.CompletedLaps
			assert.Equal(t, r.CompletedLaps >= 3, r.Finished)
			assert.Equal(t, len(r.LapHistory), r.CompletedLaps)
			assert.LessOrEqual(t, track.EllipseValue(r.Position.Sub(tr.Center), tr.Outer), 1.0+1e-9)
		}
	}
}
