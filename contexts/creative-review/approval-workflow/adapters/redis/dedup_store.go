package redisadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "creativehub:approval-workflow:dedup:"

// Client is the part of redis.UniversalClient the dedup store needs.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DedupStore reserves event ids with SET NX so a replayed bus message is
// handled once per TTL window.
type DedupStore struct {
	client Client
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

func NewDedupStore(client Client, logger *slog.Logger) *DedupStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupStore{
		client: client,
		prefix: defaultKeyPrefix,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ReserveEvent reports true when the event id was already reserved.
func (s *DedupStore) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, errors.New("event id is required for dedup")
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Minute
	}

	key := s.prefix + eventID
	reserved, err := s.client.SetNX(ctx, key, payloadHash, ttl).Result()
	if err != nil {
		return false, err
	}
	if reserved {
		return false, nil
	}

	stored, err := s.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return true, nil
	}
	if stored != "" && stored != payloadHash {
		s.logger.Warn("event id replayed with different payload",
			"event", "workflow_event_dedup_payload_mismatch",
			"module", "creative-review/approval-workflow",
			"layer", "adapter",
			"event_id", eventID,
		)
	}
	return true, nil
}

func (s *DedupStore) ReleaseEvent(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return errors.New("event id is required for dedup")
	}
	return s.client.Del(ctx, s.prefix+eventID).Err()
}
