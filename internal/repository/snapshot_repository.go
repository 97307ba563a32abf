package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

const (
	snapshotPrefix     = "officeadmin:snapshot:"
	defaultSnapshotTTL = 10 * time.Minute
)

// SnapshotMetrics receives snapshot write latencies.
type SnapshotMetrics interface {
	ObserveCacheWrite(duration time.Duration)
}

type snapshotEnvelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// SnapshotRepository keeps collection snapshots in Redis so console replicas
// behind a load balancer can share them.
type SnapshotRepository struct {
	client  *redis.Client
	ttl     time.Duration
	metrics SnapshotMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewSnapshotRepository constructs a snapshot repository. A zero ttl falls
// back to ten minutes.
func NewSnapshotRepository(client *redis.Client, ttl time.Duration, metrics SnapshotMetrics, logger *zap.Logger) *SnapshotRepository {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotRepository{client: client, ttl: ttl, metrics: metrics, logger: logger, now: time.Now}
}

// Load decodes the snapshot under key into dest and reports when it was stored.
func (r *SnapshotRepository) Load(ctx context.Context, key string, dest interface{}) (time.Time, error) {
	if r.client == nil {
		return time.Time{}, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, appErrors.ErrCacheMiss
		}
		return time.Time{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	return decodeSnapshot(raw, dest)
}

// Save stores value under key with the repository TTL.
func (r *SnapshotRepository) Save(ctx context.Context, key string, value interface{}) error {
	if r.client == nil {
		return nil
	}

	start := time.Now()
	payload, err := encodeSnapshot(value, r.now())
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}

	if err := r.client.Set(ctx, snapshotKey(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	if r.metrics != nil {
		r.metrics.ObserveCacheWrite(time.Since(start))
	}
	return nil
}

// Delete removes the snapshot under key.
func (r *SnapshotRepository) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, snapshotKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// DeleteScope removes every snapshot belonging to scope.
func (r *SnapshotRepository) DeleteScope(ctx context.Context, scope string) error {
	if r.client == nil {
		return nil
	}

	pattern := snapshotKey(scope + ":*")
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	removed := 0
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}

	r.logger.Debug("snapshot scope dropped", zap.String("scope", scope), zap.Int("keys", removed))
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *SnapshotRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func snapshotKey(key string) string {
	return snapshotPrefix + key
}

func encodeSnapshot(value interface{}, at time.Time) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshotEnvelope{StoredAt: at.UTC(), Data: data})
}

func decodeSnapshot(raw []byte, dest interface{}) (time.Time, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if len(env.Data) == 0 {
		return time.Time{}, appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return env.StoredAt, nil
}
