package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mamadaliyev66/CAM-APP/internal/config"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

// Change announces that a lesson collection was written.
type Change struct {
	Collection string    `json:"collection"`
	Origin     string    `json:"origin"`
	At         time.Time `json:"at"`
}

// RedisFeed carries lesson changes between engine instances over Redis
// pub/sub.
type RedisFeed struct {
	log     logger.Log
	rdb     *goredis.Client
	channel string
	origin  string
}

func NewRedisFeed(ctx context.Context, l logger.Log, cfg config.Redis, origin string) (*RedisFeed, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisFeed{
		log:     l.With("component", "changefeed"),
		rdb:     rdb,
		channel: cfg.Channel,
		origin:  origin,
	}, nil
}

func (f *RedisFeed) Publish(ctx context.Context, collection string) error {
	raw, err := json.Marshal(Change{Collection: collection, Origin: f.origin, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, f.channel, raw).Err()
}

// Listen forwards changes published by other instances to onChange until ctx
// is done. Changes from this instance are skipped; they were applied locally.
func (f *RedisFeed) Listen(ctx context.Context, onChange func(collection string)) error {
	if onChange == nil {
		return errors.New("onChange callback required")
	}

	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	f.log.Info("listening for lesson changes", "channel", f.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			change, err := decode(m.Payload)
			if err != nil {
				f.log.Warn("bad lesson change payload", "error", err)
				continue
			}
			if change.Origin == f.origin {
				continue
			}
			onChange(change.Collection)
		}
	}
}

func (f *RedisFeed) Close() error {
	return f.rdb.Close()
}

func decode(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, err
	}
	if c.Collection == "" {
		return Change{}, errors.New("empty collection")
	}
	return c, nil
}

func (f *RedisFeed) Ping(ctx context.Context) error {
	return f.rdb.Ping(ctx).Err()
}
