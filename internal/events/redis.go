package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/op/go-logging.v1"
)

// RedisOptions configures the Redis stream sink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64

	// QueueSize bounds events waiting for Redis; zero takes DefaultQueueSize.
	QueueSize int
}

// RedisSink appends events to a Redis stream so external tooling can follow
// relay activity. Appends run on a background queue; failed appends are
// logged and otherwise ignored.
type RedisSink struct {
	client  *redis.Client
	stream  string
	maxLen  int64
	timeout time.Duration
	log     *logging.Logger
	queue   *Async
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(ctx context.Context, opts RedisOptions, log *logging.Logger) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	s := &RedisSink{
		client:  rdb,
		stream:  opts.Stream,
		maxLen:  opts.MaxLen,
		timeout: 2 * time.Second,
		log:     log,
	}
	s.queue = NewAsync(SinkFunc(s.append), opts.QueueSize)
	return s, nil
}

func (s *RedisSink) args(e Event) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: e.Fields(),
	}
}

// Emit queues e for the stream without waiting on Redis.
func (s *RedisSink) Emit(e Event) { s.queue.Emit(e) }

func (s *RedisSink) append(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.XAdd(ctx, s.args(e)).Err(); err != nil && s.log != nil {
		s.log.Warningf("redis event %s: %v", e.Kind, err)
	}
}

// Close flushes queued events and releases the Redis connection pool.
func (s *RedisSink) Close() error {
	s.queue.Close()
	return s.client.Close()
}
