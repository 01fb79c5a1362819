//nolint:funlen // ok for tests
package leaderboard_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/leaderboard/store/memory"
	"github.com/mpapenbr/binkrace/pkg/model"
)

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStore) Load(context.Context) ([]model.LeaderboardEntry, error) {
	return nil, f.loadErr
}

func (f *failingStore) Save(context.Context, []model.LeaderboardEntry) error {
	f.saves++
	return f.saveErr
}

func entry(label string, t float64) model.LeaderboardEntry {
	return model.LeaderboardEntry{Label: label, Time: t}
}

func labels(entries []model.LeaderboardEntry) []string {
	ret := make([]string, len(entries))
	for i := range entries {
		ret[i] = entries[i].Label
	}
	return ret
}

func TestPush(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		push  []model.LeaderboardEntry
		want  []string
	}{
		{
			name: "sorted ascending",
			push: []model.LeaderboardEntry{entry("c", 70), entry("a", 50), entry("b", 60)},
			want: []string{"a", "b", "c"},
		},
		{
			name:  "truncated to limit",
			limit: 2,
			push:  []model.LeaderboardEntry{entry("c", 70), entry("a", 50), entry("b", 60)},
			want:  []string{"a", "b"},
		},
		{
			name: "equal times keep insertion order",
			push: []model.LeaderboardEntry{entry("first", 60), entry("second", 60), entry("fast", 10)},
			want: []string{"fast", "first", "second"},
		},
		{
			name:  "slow entry does not make it",
			limit: 1,
			push:  []model.LeaderboardEntry{entry("a", 50), entry("b", 90)},
			want:  []string{"a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			lb := leaderboard.New(context.Background(),
				leaderboard.WithStore(store), leaderboard.WithLimit(tt.limit))
			var got []model.LeaderboardEntry
			for _, e := range tt.push {
				got = lb.Push(context.Background(), e)
			}
			assert.Equal(t, tt.want, labels(got))
			assert.Equal(t, tt.want, labels(lb.Entries()))

			stored, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, labels(stored))
		})
	}
}

func TestPushManyKeepsInvariant(t *testing.T) {
	lb := leaderboard.New(context.Background())
	require.Equal(t, leaderboard.DefaultLimit, lb.Limit())
	pushed := []float64{90, 12, 55, 55, 300, 1, 42, 42, 77, 13, 8, 99, 61}
	for _, tm := range pushed {
		got := lb.Push(context.Background(), entry("x", tm))
		assert.LessOrEqual(t, len(got), 6)
		assert.True(t, slices.IsSortedFunc(got, func(a, b model.LeaderboardEntry) int {
			return int(a.Time - b.Time)
		}))
	}
	assert.Equal(t, []float64{1, 8, 12, 13, 42, 42}, times(lb.Entries()))
}

func times(entries []model.LeaderboardEntry) []float64 {
	ret := make([]float64, len(entries))
	for i := range entries {
		ret[i] = entries[i].Time
	}
	return ret
}

func TestPushFillsIDAndTime(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	lb := leaderboard.New(context.Background(), leaderboard.WithClock(func() time.Time { return now }))

	got := lb.Push(context.Background(), entry("a", 50))
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.Equal(t, now, got[0].RecordedAt)

	id := uuid.Must(uuid.NewV4())
	at := now.Add(-time.Hour)
	got = lb.Push(context.Background(), model.LeaderboardEntry{ID: id, Label: "b", Time: 40, RecordedAt: at})
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, at, got[0].RecordedAt)
}

func TestReturnedEntriesAreCopies(t *testing.T) {
	lb := leaderboard.New(context.Background())
	got := lb.Push(context.Background(), entry("a", 50))
	got[0].Label = "changed"
	assert.Equal(t, "a", lb.Entries()[0].Label)
}

func TestLoadOnCreate(t *testing.T) {
	store := memory.New(entry("a", 1), entry("b", 2), entry("c", 3))
	lb := leaderboard.New(context.Background(), leaderboard.WithStore(store), leaderboard.WithLimit(2))
	assert.Equal(t, []string{"a", "b"}, labels(lb.Entries()))
}

func TestStoreErrorsAreSwallowed(t *testing.T) {
	store := &failingStore{loadErr: errors.New("broken"), saveErr: errors.New("disk full")}
	lb := leaderboard.New(context.Background(), leaderboard.WithStore(store))
	assert.Empty(t, lb.Entries())

	got := lb.Push(context.Background(), entry("a", 50))
	assert.Equal(t, []string{"a"}, labels(got))
	assert.Equal(t, 1, store.saves)

	err := lb.Clear(context.Background())
	assert.ErrorIs(t, err, store.saveErr)
	assert.Empty(t, lb.Entries())
}

func TestClear(t *testing.T) {
	store := memory.New(entry("a", 1))
	lb := leaderboard.New(context.Background(), leaderboard.WithStore(store))
	require.NoError(t, lb.Clear(context.Background()))
	assert.Empty(t, lb.Entries())
	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00.0"},
		{-3, "00:00.0"},
		{9.99, "00:09.9"},
		{61.25, "01:01.2"},
		{125.06, "02:05.0"},
		{3600, "60:00.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leaderboard.FormatTime(tt.seconds), "%v", tt.seconds)
	}
}

func TestPositionLabel(t *testing.T) {
	date := time.Date(2026, 10, 18, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "P2 • 10/18/2026", leaderboard.PositionLabel(2, date))
}
