package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/model"
)

const (
	DefaultBucket = "binkrace"
	DefaultBoard  = "default"
)

type (
	Option func(*natsStoreConfig)

	natsStoreConfig struct {
		bucket string
		board  string
	}

	// Store keeps a board as a json array in a JetStream key value bucket.
	Store struct {
		cfg natsStoreConfig
		kv  jetstream.KeyValue
		log *log.Logger
	}
)

func WithBucket(bucket string) Option {
	return func(c *natsStoreConfig) {
		if bucket != "" {
			c.bucket = bucket
		}
	}
}

func WithBoard(board string) Option {
	return func(c *natsStoreConfig) {
		if board != "" {
			c.board = board
		}
	}
}

// New creates the bucket if needed.
func New(ctx context.Context, nc *nats.Conn, opts ...Option) (*Store, error) {
	ret := &Store{
		cfg: natsStoreConfig{bucket: DefaultBucket, board: DefaultBoard},
		log: log.Default().Named("leaderboard.nats"),
	}
	for _, o := range opts {
		o(&ret.cfg)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	ret.kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      ret.cfg.bucket,
		Description: "binkrace leaderboards",
		History:     5,
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", ret.cfg.bucket, err)
	}
	ret.log.Debug("Initialized NATS leaderboard store",
		log.String("bucket", ret.cfg.bucket),
		log.String("key", ret.key()))
	return ret, nil
}

func (s *Store) Load(ctx context.Context) ([]model.LeaderboardEntry, error) {
	kve, err := s.kv.Get(ctx, s.key())
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return []model.LeaderboardEntry{}, nil
		}
		return nil, err
	}
	var ret []model.LeaderboardEntry
	if err := json.Unmarshal(kve.Value(), &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) Save(ctx context.Context, entries []model.LeaderboardEntry) error {
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	_, err = s.kv.Put(ctx, s.key(), data)
	return err
}

// Watch calls fn with the board content whenever another process changes it.
// It returns when ctx is done.
func (s *Store) Watch(ctx context.Context, fn func([]model.LeaderboardEntry)) error {
	w, err := s.kv.Watch(ctx, s.key(), jetstream.UpdatesOnly())
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Stop(); err != nil {
			s.log.Debug("stopping watcher", log.ErrorField(err))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case kve, ok := <-w.Updates():
			if !ok {
				return nil
			}
			if kve == nil || kve.Operation() != jetstream.KeyValuePut {
				continue
			}
			var entries []model.LeaderboardEntry
			if err := json.Unmarshal(kve.Value(), &entries); err != nil {
				s.log.Warn("invalid leaderboard data", log.ErrorField(err))
				continue
			}
			fn(entries)
		}
	}
}

func (s *Store) key() string {
	return "leaderboard." + s.cfg.board
}
