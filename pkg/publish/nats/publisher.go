package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/model"
)

const DefaultPrefix = "race"

type (
	// Publisher sends snapshots and race events as json to NATS subjects
	// <prefix>.<raceId>.snapshot and <prefix>.<raceId>.events
	Publisher struct {
		conn   *nats.Conn
		prefix string
		l      *log.Logger
	}
	Option func(*Publisher)
)

func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

func NewPublisher(conn *nats.Conn, opts ...Option) *Publisher {
	ret := &Publisher{
		conn:   conn,
		prefix: DefaultPrefix,
		l:      log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Publisher) SnapshotSubject(raceID string) string {
	return fmt.Sprintf("%s.%s.snapshot", p.prefix, raceID)
}

func (p *Publisher) EventSubject(raceID string) string {
	return fmt.Sprintf("%s.%s.events", p.prefix, raceID)
}

func (p *Publisher) PublishSnapshot(s *model.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.SnapshotSubject(s.RaceID), data)
}

func (p *Publisher) PublishEvents(raceID string, events []model.Event) error {
	for i := range events {
		data, err := json.Marshal(&events[i])
		if err != nil {
			return err
		}
		if err := p.conn.Publish(p.EventSubject(raceID), data); err != nil {
			return err
		}
	}
	return nil
}

// Attach publishes every snapshot received from ch until ch is closed.
// Events of the snapshot are published first.
func (p *Publisher) Attach(ch <-chan model.Snapshot) {
	go func() {
		for s := range ch {
			if len(s.Events) > 0 {
				if err := p.PublishEvents(s.RaceID, s.Events); err != nil {
					p.l.Warn("error publishing events", log.ErrorField(err))
				}
			}
			if err := p.PublishSnapshot(&s); err != nil {
				p.l.Warn("error publishing snapshot", log.ErrorField(err))
			}
		}
		p.l.Debug("snapshot channel closed")
	}()
}
