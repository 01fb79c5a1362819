package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/binkrace/pkg/model"
	lbrepos "github.com/mpapenbr/binkrace/pkg/repository/leaderboard"
)

const DefaultBoard = "default"

// Store keeps one named board in the leaderboard table.
type Store struct {
	pool  *pgxpool.Pool
	board string
	limit int
}

type Option func(s *Store)

func WithBoard(board string) Option {
	return func(s *Store) {
		if board != "" {
			s.board = board
		}
	}
}

// WithLimit restricts the number of loaded entries.
func WithLimit(n int) Option {
	return func(s *Store) {
		s.limit = n
	}
}

func New(pool *pgxpool.Pool, opts ...Option) *Store {
	ret := &Store{pool: pool, board: DefaultBoard}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Store) Load(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return lbrepos.LoadByBoard(ctx, s.pool, s.board, s.limit)
}

func (s *Store) Save(ctx context.Context, entries []model.LeaderboardEntry) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return lbrepos.ReplaceBoard(ctx, tx, s.board, entries)
	})
}
