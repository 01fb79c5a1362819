package progress

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/track"
)

const (
	// MinLapSpeed is the speed a racer needs when crossing the start line to get the lap counted.
	MinLapSpeed = 60.0

	lineBefore = math.Pi * 1.5
	lineAfter  = math.Pi * 0.5
)

type Tracker struct {
	totalLaps int
}

type TrackerOption func(t *Tracker)

func WithTotalLaps(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.totalLaps = n
		}
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	ret := &Tracker{totalLaps: model.DefaultTotalLaps}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (t *Tracker) TotalLaps() int {
	return t.totalLaps
}

// UpdateProgress checks for a start line crossing and updates the lap data of r.
// It returns true if a lap was completed in this call. Finished racers are not changed.
//
//nolint:whitespace // editor/linter issue
func (t *Tracker) UpdateProgress(
	r *model.Racer,
	tr *model.Track,
	s model.Surface,
	elapsed float64,
) bool {
	if r.Finished {
		return false
	}
	completed := false
	angle := track.AngleAt(tr, r.Position)
	if r.Speed() > MinLapSpeed && r.LastAngle > lineBefore && angle < lineAfter {
		r.CompletedLaps++
		r.LapHistory = append(r.LapHistory, elapsed)
		r.Distance = 0
		completed = true
		if r.CompletedLaps >= t.totalLaps {
			r.Finished = true
			r.FinishTime = elapsed
		}
	}
	r.LastAngle = angle
	if !s.OffTrack {
		r.Distance += r.Speed()
	}
	return completed
}

// Progress is the number of completed laps plus the fraction of the current one.
func Progress(r *model.Racer, tr *model.Track) float64 {
	return float64(r.CompletedLaps) + track.AngleAt(tr, r.Position)/(math.Pi*2)
}

// Standings returns the racers ordered by descending progress.
// Racers with equal progress keep their order in racers.
func Standings(racers []*model.Racer, tr *model.Track) []*model.Racer {
	type entry struct {
		racer    *model.Racer
		progress float64
	}
	work := make([]entry, len(racers))
	for i, r := range racers {
		work[i] = entry{racer: r, progress: Progress(r, tr)}
	}
	slices.SortStableFunc(work, func(a, b entry) int {
		switch {
		case a.progress > b.progress:
			return -1
		case a.progress < b.progress:
			return 1
		default:
			return 0
		}
	})
	return lo.Map(work, func(e entry, _ int) *model.Racer { return e.racer })
}

// PositionOf returns the 1-based standing of r, 0 if r is not part of racers.
func PositionOf(racers []*model.Racer, tr *model.Track, r *model.Racer) int {
	return slices.Index(Standings(racers, tr), r) + 1
}
