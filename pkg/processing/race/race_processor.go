package race

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing/control"
	"github.com/mpapenbr/binkrace/pkg/processing/physics"
	"github.com/mpapenbr/binkrace/pkg/processing/progress"
	"github.com/mpapenbr/binkrace/pkg/track"
)

var ErrInvalidTransition = errors.New("invalid phase transition")

var transitions = map[model.Phase][]model.Phase{
	model.PhaseIdle:      {model.PhaseCountdown},
	model.PhaseCountdown: {model.PhaseCountdown, model.PhaseRunning, model.PhaseIdle},
	model.PhaseRunning:   {model.PhaseFinished, model.PhaseCountdown, model.PhaseIdle},
	model.PhaseFinished:  {model.PhaseCountdown, model.PhaseIdle},
}

// CanTransition reports whether the race may move from one phase to the other.
func CanTransition(from, to model.Phase) bool {
	return slices.Contains(transitions[from], to)
}

// PolicySelector picks the control policy for a racer.
type PolicySelector func(r *model.Racer) control.Policy

type RaceProcessor struct {
	track     *model.Track
	roster    []model.RacerSpec
	totalLaps int
	policies  PolicySelector
	tracker   *progress.Tracker
	log       *log.Logger
	state     *model.RaceState
}

type RaceProcessorOption func(rp *RaceProcessor)

func WithTrack(t *model.Track) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.track = t
	}
}

func WithRoster(roster []model.RacerSpec) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.roster = roster
	}
}

func WithTotalLaps(n int) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		if n > 0 {
			rp.totalLaps = n
		}
	}
}

func WithPolicies(sel PolicySelector) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.policies = sel
	}
}

func WithLogger(l *log.Logger) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.log = l
	}
}

func NewRaceProcessor(opts ...RaceProcessorOption) *RaceProcessor {
	ret := &RaceProcessor{
		track:     model.DefaultTrack(),
		roster:    model.DefaultRoster(),
		totalLaps: model.DefaultTotalLaps,
		policies:  control.For,
		log:       log.Default().Named("race"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.tracker = progress.NewTracker(progress.WithTotalLaps(ret.totalLaps))
	ret.state = ret.newState(model.PhaseIdle)
	return ret
}

func (p *RaceProcessor) Track() *model.Track {
	return p.track
}

// State returns the active race. The returned state is replaced on Start and Reset.
func (p *RaceProcessor) State() *model.RaceState {
	return p.state
}

// Start sets up a new field on the grid and begins the countdown.
// Any race in progress is dropped.
func (p *RaceProcessor) Start() ([]model.Event, error) {
	if !CanTransition(p.state.Phase, model.PhaseCountdown) {
		return nil, p.transitionError(model.PhaseCountdown)
	}
	p.state = p.newState(model.PhaseCountdown)
	p.log.Info("race started",
		log.String("raceId", p.state.ID),
		log.Int("racers", len(p.state.Racers)),
		log.Int("laps", p.state.TotalLaps))
	return []model.Event{p.phaseEvent()}, nil
}

// Reset drops the current race and returns to idle.
func (p *RaceProcessor) Reset() ([]model.Event, error) {
	if !CanTransition(p.state.Phase, model.PhaseIdle) {
		return nil, p.transitionError(model.PhaseIdle)
	}
	p.state = p.newState(model.PhaseIdle)
	p.log.Info("race reset")
	return []model.Event{p.phaseEvent()}, nil
}

// Tick advances the race by dt seconds using in for the human racer.
// Ticks with dt <= 0 change nothing.
func (p *RaceProcessor) Tick(dt float64, in model.Input) []model.Event {
	if !(dt > 0) {
		return nil
	}
	switch p.state.Phase {
	case model.PhaseCountdown:
		return p.tickCountdown(dt)
	case model.PhaseRunning:
		return p.tickRunning(dt, in)
	case model.PhaseIdle, model.PhaseFinished:
	}
	return nil
}

// Snapshot returns a copy of the current state for renderers.
func (p *RaceProcessor) Snapshot() model.Snapshot {
	s := p.state
	ret := model.Snapshot{
		RaceID:    s.ID,
		Phase:     s.Phase,
		Countdown: s.Countdown,
		GoTimer:   s.GoTimer,
		Lap:       s.CurrentLap(),
		TotalLaps: s.TotalLaps,
		Position:  s.Position,
		Racers:    make([]model.RacerView, len(s.Racers)),
	}
	if s.Phase == model.PhaseRunning || s.Phase == model.PhaseFinished {
		ret.Elapsed = s.Elapsed
	}
	if s.Player != nil {
		ret.PlayerName = s.Player.Name
	}
	for i, r := range s.Racers {
		ret.Racers[i] = model.ViewOf(r)
	}
	return ret
}

func (p *RaceProcessor) tickCountdown(dt float64) []model.Event {
	s := p.state
	s.CountdownTimer += dt
	if s.CountdownTimer < 1 {
		return nil
	}
	s.Countdown--
	s.CountdownTimer = 0
	if s.Countdown > 0 {
		return nil
	}
	s.Phase = model.PhaseRunning
	s.GoTimer = model.GoDisplaySeconds
	p.log.Debug("green flag", log.String("raceId", s.ID))
	return []model.Event{p.phaseEvent()}
}

func (p *RaceProcessor) tickRunning(dt float64, in model.Input) []model.Event {
	s := p.state
	s.Elapsed += dt
	if s.GoTimer > 0 {
		s.GoTimer = max(0, s.GoTimer-dt)
	}

	var events []model.Event
	for _, r := range s.Racers {
		if r.Finished {
			continue
		}
		surface := track.ClassifySurface(p.track, r.Position)
		intent := p.policies(r).Intent(r, surface, p.track, s.Elapsed, dt, in)
		physics.Apply(r, intent)
		physics.Integrate(r, dt, surface)
		track.ClampToBounds(p.track, r)
		if !p.tracker.UpdateProgress(r, p.track, surface, s.Elapsed) {
			continue
		}
		events = append(events, model.Event{
			Type:    model.EventLapCompleted,
			Racer:   r.Name,
			Lap:     r.CompletedLaps,
			Elapsed: s.Elapsed,
			Phase:   s.Phase,
		})
		if r.Finished {
			p.log.Debug("racer finished",
				log.String("racer", r.Name),
				log.Float64("time", r.FinishTime))
			events = append(events, model.Event{
				Type:    model.EventRacerFinished,
				Racer:   r.Name,
				Lap:     r.CompletedLaps,
				Elapsed: r.FinishTime,
				Phase:   s.Phase,
			})
		}
	}

	if s.Player != nil {
		s.Position = progress.PositionOf(s.Racers, p.track, s.Player)
		if s.Player.Finished {
			s.Phase = model.PhaseFinished
			p.log.Info("race finished",
				log.String("raceId", s.ID),
				log.Int("position", s.Position),
				log.Float64("time", s.Player.FinishTime))
			events = append(events, p.phaseEvent())
		}
	}
	return events
}

func (p *RaceProcessor) newState(phase model.Phase) *model.RaceState {
	ret := &model.RaceState{
		ID:        uuid.NewString(),
		Phase:     phase,
		Countdown: model.CountdownSeconds,
		TotalLaps: p.totalLaps,
		Racers:    make([]*model.Racer, 0, len(p.roster)),
	}
	for _, spec := range p.roster {
		r := model.NewRacer(spec)
		track.Place(p.track, r)
		ret.Racers = append(ret.Racers, r)
		if r.IsPlayer && ret.Player == nil {
			ret.Player = r
		}
	}
	if phase != model.PhaseIdle && ret.Player != nil {
		ret.Position = progress.PositionOf(ret.Racers, p.track, ret.Player)
	}
	return ret
}

func (p *RaceProcessor) phaseEvent() model.Event {
	return model.Event{
		Type:    model.EventPhaseChanged,
		Elapsed: p.state.Elapsed,
		Phase:   p.state.Phase,
	}
}

func (p *RaceProcessor) transitionError(to model.Phase) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state.Phase, to)
}
