//nolint:whitespace //can't make both the linter and editor happy :(
package leaderboard

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/binkrace/pkg/db/mytypes"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/repository"
)

// LoadByBoard returns the entries of a board in stored order.
// A limit <= 0 returns all entries.
func LoadByBoard(
	ctx context.Context,
	conn repository.Querier,
	board string,
	limit int,
) ([]model.LeaderboardEntry, error) {
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = conn.Query(ctx, selector+" where board=$1 order by pos limit $2", board, limit)
	} else {
		rows, err = conn.Query(ctx, selector+" where board=$1 order by pos", board)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]model.LeaderboardEntry, 0)
	for rows.Next() {
		var item model.LeaderboardEntry
		if err := scan(&item, rows); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// ReplaceBoard stores entries as the new content of board.
// Should be called within a transaction.
func ReplaceBoard(
	ctx context.Context,
	conn repository.Querier,
	board string,
	entries []model.LeaderboardEntry,
) error {
	if _, err := DeleteByBoard(ctx, conn, board); err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		_, err := conn.Exec(ctx,
			`insert into leaderboard (id, board, pos, label, finish_time, laps, recorded_at)
			 values ($1,$2,$3,$4,$5,$6,$7)`,
			e.ID, board, i, e.Label, e.Time, mytypes.LapTimes(e.Laps), e.RecordedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// deletes all entries of a board, returns number of rows deleted.
func DeleteByBoard(ctx context.Context, conn repository.Querier, board string) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from leaderboard where board=$1", board)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// little helper
const selector = string(`select id,label,finish_time,laps,recorded_at from leaderboard`)

func scan(e *model.LeaderboardEntry, row pgx.Row) error {
	var laps mytypes.LapTimes
	if err := row.Scan(&e.ID, &e.Label, &e.Time, &laps, &e.RecordedAt); err != nil {
		return err
	}
	if len(laps) > 0 {
		e.Laps = laps
	}
	return nil
}
