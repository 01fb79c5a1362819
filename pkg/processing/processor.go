package processing

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing/control"
	"github.com/mpapenbr/binkrace/pkg/processing/race"
)

// Processor drives a race from frame timestamps. It is safe for concurrent use.
type Processor struct {
	mutex         sync.Mutex
	ctx           context.Context
	race          *race.RaceProcessor
	input         control.InputSource
	board         *leaderboard.Leaderboard
	sink          chan<- model.Snapshot
	log           *log.Logger
	clock         func() time.Time
	lastTimestamp time.Duration
	hasTimestamp  bool
	pending       []model.Event // events of dropped snapshots
	pendingRace   string
	frames        metric.Int64Counter
	finished      metric.Int64Counter
}

type ProcessorOption func(proc *Processor)

func WithContext(ctx context.Context) ProcessorOption {
	return func(proc *Processor) {
		proc.ctx = ctx
	}
}

func WithRaceProcessor(rp *race.RaceProcessor) ProcessorOption {
	return func(proc *Processor) {
		proc.race = rp
	}
}

func WithInputSource(in control.InputSource) ProcessorOption {
	return func(proc *Processor) {
		proc.input = in
	}
}

// WithLeaderboard receives the player's result when a race is finished.
func WithLeaderboard(lb *leaderboard.Leaderboard) ProcessorOption {
	return func(proc *Processor) {
		proc.board = lb
	}
}

// WithSnapshotSink gets a snapshot after each frame. Snapshots are dropped
// while the sink is full.
func WithSnapshotSink(sink chan<- model.Snapshot) ProcessorOption {
	return func(proc *Processor) {
		proc.sink = sink
	}
}

func WithLogger(l *log.Logger) ProcessorOption {
	return func(proc *Processor) {
		proc.log = l
	}
}

func WithClock(clock func() time.Time) ProcessorOption {
	return func(proc *Processor) {
		proc.clock = clock
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ret := &Processor{
		ctx:   context.Background(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.GetFromContext(ret.ctx).Named("processor")
	}
	if ret.race == nil {
		ret.race = race.NewRaceProcessor()
	}
	ret.setupMetrics()
	return ret
}

func (p *Processor) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("binkrace.processing")
	var err error
	if p.frames, err = meter.Int64Counter("binkrace.frames",
		metric.WithDescription("Number of processed frames"),
		metric.WithUnit("{count}")); err != nil {
		p.log.Error("failed to register metric", log.ErrorField(err))
	}
	if p.finished, err = meter.Int64Counter("binkrace.races.finished",
		metric.WithDescription("Number of finished races"),
		metric.WithUnit("{count}")); err != nil {
		p.log.Error("failed to register metric", log.ErrorField(err))
	}
}

func (p *Processor) Track() *model.Track {
	return p.race.Track()
}

func (p *Processor) Leaderboard() *leaderboard.Leaderboard {
	return p.board
}

// Start begins a new race, dropping the current one.
func (p *Processor) Start() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	events, err := p.race.Start()
	if err != nil {
		return err
	}
	p.publish(events)
	return nil
}

// Reset drops the current race and returns to idle.
func (p *Processor) Reset() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	events, err := p.race.Reset()
	if err != nil {
		return err
	}
	p.publish(events)
	return nil
}

func (p *Processor) Snapshot() model.Snapshot {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.race.Snapshot()
}

// Frame advances the race to timestamp. The first frame and frames with a
// timestamp not after the previous one do not advance the race.
func (p *Processor) Frame(timestamp time.Duration) []model.Event {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	dt := 0.0
	if p.hasTimestamp && timestamp > p.lastTimestamp {
		dt = (timestamp - p.lastTimestamp).Seconds()
	}
	p.lastTimestamp = timestamp
	p.hasTimestamp = true
	return p.tick(dt)
}

// Run calls Frame every step until ctx is done.
func (p *Processor) Run(ctx context.Context, step time.Duration) error {
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	start := time.Now()
	p.Frame(0)
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			p.Frame(now.Sub(start))
		}
	}
}

// Simulate runs frames with a virtual clock advancing by step until the race
// is finished or maxTime is reached. An idle race is started first.
// It returns the final snapshot and all events.
//
//nolint:whitespace // editor/linter issue
func (p *Processor) Simulate(
	step time.Duration,
	maxTime time.Duration,
) (model.Snapshot, []model.Event) {
	var events []model.Event
	if p.Snapshot().Phase == model.PhaseIdle {
		if err := p.Start(); err != nil {
			p.log.Error("could not start race", log.ErrorField(err))
			return p.Snapshot(), nil
		}
	}
	ts := time.Duration(0)
	events = append(events, p.Frame(ts)...)
	for ts < maxTime {
		ts += step
		events = append(events, p.Frame(ts)...)
		if p.Snapshot().Phase == model.PhaseFinished {
			break
		}
	}
	return p.Snapshot(), events
}

func (p *Processor) tick(dt float64) []model.Event {
	in := model.Input{}
	if p.input != nil {
		in = p.input.Input(p.race.State())
	}
	events := p.race.Tick(dt, in)
	if p.frames != nil && dt > 0 {
		p.frames.Add(p.ctx, 1)
	}
	if slices.ContainsFunc(events, func(e model.Event) bool {
		return e.Type == model.EventPhaseChanged && e.Phase == model.PhaseFinished
	}) {
		p.recordResult()
	}
	p.publish(events)
	return events
}

func (p *Processor) recordResult() {
	s := p.race.State()
	if p.finished != nil {
		p.finished.Add(p.ctx, 1)
	}
	if p.board == nil || s.Player == nil {
		return
	}
	entry := model.LeaderboardEntry{
		Label:      leaderboard.PositionLabel(s.Position, p.clock()),
		Time:       s.Player.FinishTime,
		RecordedAt: p.clock(),
		Laps:       slices.Clone(s.Player.LapHistory),
	}
	p.board.Push(p.ctx, entry)
	p.log.Info("result recorded",
		log.String("label", entry.Label),
		log.String("time", leaderboard.FormatTime(entry.Time)))
}

// publish hands a snapshot to the sink without blocking. Events of a snapshot
// that does not fit are carried over to the next snapshot of the same race.
func (p *Processor) publish(events []model.Event) {
	if p.sink == nil {
		return
	}
	snap := p.race.Snapshot()
	if len(p.pending) > 0 && p.pendingRace != snap.RaceID {
		p.log.Warn("dropping undelivered events of previous race",
			log.String("raceId", p.pendingRace),
			log.Int("events", len(p.pending)))
		p.pending = nil
	}
	if len(p.pending) > 0 {
		events = append(p.pending, events...)
	}
	snap.Events = events
	select {
	case p.sink <- snap:
		p.pending = nil
	default:
		p.log.Debug("snapshot sink full, dropping snapshot",
			log.Int("pendingEvents", len(events)))
		p.pending = events
		p.pendingRace = snap.RaceID
	}
}
