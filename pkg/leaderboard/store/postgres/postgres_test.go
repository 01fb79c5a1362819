package postgres

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/testsupport/basedata"
	"github.com/mpapenbr/binkrace/testsupport/testdb"
)

func TestStoreRoundTrip(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	basedata.CreateSampleBoard(pool, "other")

	s := New(pool, WithBoard("store-test"), WithLimit(6))
	lb := leaderboard.New(ctx, leaderboard.WithStore(s))
	assert.Equal(t, 0, len(lb.Entries()))

	lb.Push(ctx, model.LeaderboardEntry{Label: "P3", Time: 80})
	lb.Push(ctx, model.LeaderboardEntry{Label: "P1", Time: 60, Laps: []float64{20, 40, 60}})

	reloaded := leaderboard.New(ctx, leaderboard.WithStore(New(pool, WithBoard("store-test"))))
	got := reloaded.Entries()
	assert.Equal(t, 2, len(got))
	assert.Equal(t, "P1", got[0].Label)
	assert.DeepEqual(t, []float64{20, 40, 60}, got[0].Laps)
	assert.Equal(t, "P3", got[1].Label)

	// other boards are untouched
	other, err := New(pool, WithBoard("other")).Load(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 3, len(other))

	assert.NilError(t, reloaded.Clear(ctx))
	empty, err := s.Load(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 0, len(empty))
}
