package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mpapenbr/binkrace/pkg/model"
)

// Store keeps the leaderboard for the lifetime of the process.
type Store struct {
	mutex   sync.Mutex
	entries []model.LeaderboardEntry
}

func New(initial ...model.LeaderboardEntry) *Store {
	return &Store{entries: slices.Clone(initial)}
}

func (s *Store) Load(context.Context) ([]model.LeaderboardEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.entries), nil
}

func (s *Store) Save(_ context.Context, entries []model.LeaderboardEntry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries = slices.Clone(entries)
	return nil
}
