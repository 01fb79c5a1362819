package leaderboard

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/model"
)

const DefaultLimit = 6

// Store persists the ordered entries of a leaderboard.
type Store interface {
	Load(ctx context.Context) ([]model.LeaderboardEntry, error)
	Save(ctx context.Context, entries []model.LeaderboardEntry) error
}

type Leaderboard struct {
	mutex   sync.Mutex
	limit   int
	store   Store
	log     *log.Logger
	clock   func() time.Time
	entries []model.LeaderboardEntry
}

type Option func(lb *Leaderboard)

func WithLimit(n int) Option {
	return func(lb *Leaderboard) {
		if n > 0 {
			lb.limit = n
		}
	}
}

func WithStore(s Store) Option {
	return func(lb *Leaderboard) {
		lb.store = s
	}
}

func WithLogger(l *log.Logger) Option {
	return func(lb *Leaderboard) {
		lb.log = l
	}
}

func WithClock(clock func() time.Time) Option {
	return func(lb *Leaderboard) {
		lb.clock = clock
	}
}

// New creates the leaderboard and loads the stored entries.
// A failing store results in an empty leaderboard.
func New(ctx context.Context, opts ...Option) *Leaderboard {
	ret := &Leaderboard{
		limit:   DefaultLimit,
		log:     log.GetFromContext(ctx).Named("leaderboard"),
		clock:   time.Now,
		entries: make([]model.LeaderboardEntry, 0),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.store == nil {
		return ret
	}
	entries, err := ret.store.Load(ctx)
	if err != nil {
		ret.log.Warn("Unable to load leaderboard", log.ErrorField(err))
		return ret
	}
	if len(entries) > ret.limit {
		entries = entries[:ret.limit]
	}
	ret.entries = entries
	ret.log.Debug("leaderboard loaded", log.Int("entries", len(entries)))
	return ret
}

func (lb *Leaderboard) Limit() int {
	return lb.limit
}

// Entries returns a copy of the current entries, fastest first.
func (lb *Leaderboard) Entries() []model.LeaderboardEntry {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()
	return slices.Clone(lb.entries)
}

// Push adds an entry, keeps the fastest entries up to the limit and stores the result.
// Store errors are logged only. The returned slice is a copy.
//
//nolint:whitespace // editor/linter issue
func (lb *Leaderboard) Push(
	ctx context.Context,
	entry model.LeaderboardEntry,
) []model.LeaderboardEntry {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()

	if entry.ID == uuid.Nil {
		if id, err := uuid.NewV4(); err == nil {
			entry.ID = id
		}
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = lb.clock()
	}
	lb.entries = append(lb.entries, entry)
	slices.SortStableFunc(lb.entries, func(a, b model.LeaderboardEntry) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	if len(lb.entries) > lb.limit {
		lb.entries = lb.entries[:lb.limit]
	}
	if err := lb.save(ctx); err != nil {
		lb.log.Warn("Unable to save leaderboard", log.ErrorField(err))
	}
	return slices.Clone(lb.entries)
}

// Clear removes all entries.
func (lb *Leaderboard) Clear(ctx context.Context) error {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()
	lb.entries = lb.entries[:0]
	if err := lb.save(ctx); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	return nil
}

func (lb *Leaderboard) save(ctx context.Context) error {
	if lb.store == nil {
		return nil
	}
	return lb.store.Save(ctx, slices.Clone(lb.entries))
}
