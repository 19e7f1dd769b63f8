// Package messaging dispatches commands to the version control integration
package messaging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/pkg/redis"
)

// RedisPublisher publishes JSON messages on a Redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisPublisher creates a publisher bound to channel
func NewRedisPublisher(client *redis.Client, channel string, logger zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Publish sends message on the configured channel. A message nobody receives counts as failed delivery.
func (p *RedisPublisher) Publish(ctx context.Context, message any) error {
	receivers, err := p.client.PublishJSON(ctx, p.channel, message)
	if err != nil {
		return err
	}
	if receivers == 0 {
		return fmt.Errorf("no subscriber on channel %s", p.channel)
	}
	p.logger.Debug().Str("channel", p.channel).Int64("receivers", receivers).Msg("Published repository access command")
	return nil
}

// LogPublisher only logs messages, used when no broker is configured
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the message and always succeeds
func (p *LogPublisher) Publish(_ context.Context, message any) error {
	p.logger.Info().Interface("message", message).Msg("Repository access command (no broker configured)")
	return nil
}
