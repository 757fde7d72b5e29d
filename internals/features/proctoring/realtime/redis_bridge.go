package realtime

import (
	"context"
	"fmt"
	"log"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"

	"proctorx_backend/internals/configs"
)

const defaultChannel = "proctorx:realtime"

type RedisBridge struct {
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
}

func NewRedisBridge(client *redis.Client, channel string) *RedisBridge {
	if channel == "" {
		channel = defaultChannel
	}
	return &RedisBridge{client: client, channel: channel}
}

// NewRedisBridgeFromEnv returns nil when REDIS_URL is unset.
func NewRedisBridgeFromEnv(ctx context.Context) (*RedisBridge, error) {
	url := configs.GetEnv("REDIS_URL")
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[REALTIME] redis bridge connected (db %d)", opt.DB)
	return NewRedisBridge(client, configs.GetEnv("REDIS_CHANNEL", defaultChannel)), nil
}

func (b *RedisBridge) Publish(ctx context.Context, env Envelope) error {
	raw, err := sonic.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, raw).Err()
}

func (b *RedisBridge) Subscribe(ctx context.Context, deliver func(Envelope)) error {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.pubsub = ps

	go func() {
		for msg := range ps.Channel() {
			var env Envelope
			if err := sonic.UnmarshalString(msg.Payload, &env); err != nil {
				log.Printf("[REALTIME] bad bridge message: %v", err)
				continue
			}
			deliver(env)
		}
	}()
	return nil
}

func (b *RedisBridge) Close() error {
	if b.pubsub != nil {
		_ = b.pubsub.Close()
	}
	return b.client.Close()
}
