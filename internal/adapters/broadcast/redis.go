package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultQueueSize = 256

type message struct {
	channel string
	payload []byte
}

// RedisSink publishes every snapshot as JSON on <prefix>:<sessionId> so
// other processes can follow a game. Publish never blocks: messages are
// queued for Run and dropped when the queue is full.
type RedisSink struct {
	client *redis.Client
	prefix string
	queue  chan message

	closeOnce sync.Once
	done      chan struct{}
}

func NewRedisSink(client *redis.Client, prefix string, queueSize int) *RedisSink {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &RedisSink{
		client: client,
		prefix: prefix,
		queue:  make(chan message, queueSize),
		done:   make(chan struct{}),
	}
}

// NewRedisClient builds the go-redis client used by the sink and health check.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisSink) Channel(id domain.SessionID) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *RedisSink) Publish(id domain.SessionID, snap domain.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Error().Str("module", "broadcast.redis").Str("session", string(id)).Err(err).Msg("snapshot encode failed")
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.queue <- message{channel: s.Channel(id), payload: payload}:
	default:
		log.Warn().Str("module", "broadcast.redis").Str("session", string(id)).Msg("publish queue full, snapshot dropped")
	}
}

// Run drains the queue until ctx is done or Close is called.
func (s *RedisSink) Run(ctx context.Context) error {
	log.Info().Str("module", "broadcast.redis").Str("prefix", s.prefix).Msg("redis sink started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case m := <-s.queue:
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := s.client.Publish(pctx, m.channel, m.payload).Err()
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Str("module", "broadcast.redis").Str("channel", m.channel).Err(err).Msg("publish failed")
			}
		}
	}
}

func (s *RedisSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.client.Close()
	})
	return err
}

func (s *RedisSink) Healthy(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}
