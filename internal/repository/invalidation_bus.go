package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InvalidationChannel is the Redis pub/sub channel carrying cache invalidations.
const InvalidationChannel = "officeadmin:invalidations"

type invalidationMessage struct {
	Origin string `json:"origin"`
	Scope  string `json:"scope"`
	Key    string `json:"key"`
}

// InvalidationHandler is called for every invalidation published by another replica.
type InvalidationHandler func(scope, key string)

// InvalidationBus fans cache invalidations out to the other console replicas.
type InvalidationBus struct {
	client *redis.Client
	origin string
	logger *zap.Logger
}

// NewInvalidationBus constructs a bus with a fresh origin id.
func NewInvalidationBus(client *redis.Client, logger *zap.Logger) *InvalidationBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationBus{client: client, origin: uuid.NewString(), logger: logger}
}

// Origin identifies this replica on the channel.
func (b *InvalidationBus) Origin() string { return b.origin }

// Publish announces that key in scope changed.
func (b *InvalidationBus) Publish(ctx context.Context, scope, key string) error {
	if b.client == nil {
		return nil
	}
	payload, err := json.Marshal(invalidationMessage{Origin: b.origin, Scope: scope, Key: key})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.client.Publish(ctx, InvalidationChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", key, err)
	}
	return nil
}

// Listen delivers invalidations from other replicas to handler until ctx is done.
func (b *InvalidationBus) Listen(ctx context.Context, handler InvalidationHandler) error {
	if b.client == nil {
		<-ctx.Done()
		return nil
	}

	sub := b.client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", InvalidationChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.dispatch([]byte(msg.Payload), handler)
		}
	}
}

func (b *InvalidationBus) dispatch(payload []byte, handler InvalidationHandler) {
	var msg invalidationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("malformed invalidation", zap.Error(err))
		return
	}
	if msg.Origin == b.origin || msg.Key == "" {
		return
	}
	handler(msg.Scope, msg.Key)
}
