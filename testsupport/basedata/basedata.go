package basedata

import (
	"context"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/binkrace/pkg/model"
	lbrepos "github.com/mpapenbr/binkrace/pkg/repository/leaderboard"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

// SampleEntries returns three entries, fastest first.
func SampleEntries() []model.LeaderboardEntry {
	return []model.LeaderboardEntry{
		{
			ID:         uuid.Must(uuid.FromString("0b7a6f4e-4f0c-4d6c-9b52-0c1f0f8e0a01")),
			Label:      "P1 • 4/28/2024",
			Time:       61.25,
			RecordedAt: TestTime(),
			Laps:       []float64{20.5, 40.75, 61.25},
		},
		{
			ID:         uuid.Must(uuid.FromString("0b7a6f4e-4f0c-4d6c-9b52-0c1f0f8e0a02")),
			Label:      "P2 • 4/28/2024",
			Time:       64.5,
			RecordedAt: TestTime().Add(time.Minute),
			Laps:       []float64{21, 43, 64.5},
		},
		{
			ID:         uuid.Must(uuid.FromString("0b7a6f4e-4f0c-4d6c-9b52-0c1f0f8e0a03")),
			Label:      "P4 • 4/28/2024",
			Time:       70,
			RecordedAt: TestTime().Add(2 * time.Minute),
		},
	}
}

func CreateSampleBoard(pool *pgxpool.Pool, board string) []model.LeaderboardEntry {
	entries := SampleEntries()
	err := pgx.BeginFunc(context.Background(), pool, func(tx pgx.Tx) error {
		return lbrepos.ReplaceBoard(context.Background(), tx, board, entries)
	})
	if err != nil {
		log.Fatalf("CreateSampleBoard: %v\n", err)
	}
	return entries
}
