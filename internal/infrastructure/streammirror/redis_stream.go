package streammirror

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
)

// XAdder is the slice of the Redis client the mirror needs.
type XAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Source is the set of snapshot streams the mirror forwards.
type Source interface {
	SubscribeTeams(ctx context.Context) <-chan []team.Team
	SubscribePlayers(ctx context.Context) <-chan []player.Player
	SubscribeFixtures(ctx context.Context) <-chan []fixture.GameFixture
}

type RedisStreamMirrorConfig struct {
	StreamPrefix string
	MaxLen       int64
	WriteTimeout time.Duration
}

// RedisStreamMirror appends every published snapshot to a Redis stream per collection,
// so processes without access to the publisher can follow the cache.
type RedisStreamMirror struct {
	client       XAdder
	prefix       string
	maxLen       int64
	writeTimeout time.Duration
	logger       *logging.Logger
}

func NewRedisStreamMirror(cfg RedisStreamMirrorConfig, client XAdder, logger *logging.Logger) *RedisStreamMirror {
	prefix := strings.Trim(strings.TrimSpace(cfg.StreamPrefix), ".")
	if prefix == "" {
		prefix = "fpl"
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RedisStreamMirror{
		client:       client,
		prefix:       prefix,
		maxLen:       cfg.MaxLen,
		writeTimeout: writeTimeout,
		logger:       logger.Named("streammirror"),
	}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// StreamName returns the Redis stream key for a collection.
func (m *RedisStreamMirror) StreamName(collection string) string {
	return m.prefix + "." + collection
}

// Run forwards snapshots until ctx is cancelled or every source subscription ends.
// Failed writes are logged and skipped; the next snapshot supersedes them.
func (m *RedisStreamMirror) Run(ctx context.Context, source Source) {
	var wg conc.WaitGroup
	wg.Go(func() { forward(ctx, m, "teams", source.SubscribeTeams(ctx)) })
	wg.Go(func() { forward(ctx, m, "players", source.SubscribePlayers(ctx)) })
	wg.Go(func() { forward(ctx, m, "fixtures", source.SubscribeFixtures(ctx)) })
	wg.Wait()
}

func forward[T any](ctx context.Context, m *RedisStreamMirror, collection string, updates <-chan []T) {
	for items := range updates {
		if err := m.Append(ctx, collection, items); err != nil {
			m.logger.WarnContext(ctx, "mirror snapshot failed", "collection", collection, "items", len(items), "error", err)
		}
	}
}

// Append writes one snapshot entry with collection, data and timestamp fields.
func (m *RedisStreamMirror) Append(ctx context.Context, collection string, items any) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(items); err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", collection, err)
	}

	stream := m.StreamName(collection)
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("redis.stream", stream),
			attribute.Int("redis.payload_bytes", buf.Len()),
		)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"collection": collection,
			"data":       strings.TrimRight(buf.String(), "\n"),
			"timestamp":  time.Now().Unix(),
		},
	}
	if m.maxLen > 0 {
		args.MaxLen = m.maxLen
		args.Approx = true
	}

	writeCtx, cancel := context.WithTimeout(ctx, m.writeTimeout)
	defer cancel()
	id, err := m.client.XAdd(writeCtx, args).Result()
	if err != nil {
		return fmt.Errorf("xadd stream=%s: %w", stream, err)
	}

	m.logger.DebugContext(ctx, "snapshot mirrored", "stream", stream, "entry_id", id, "payload_bytes", buf.Len())
	return nil
}
