package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/ports"
)

// DefaultChannel is the pub/sub channel content events travel on.
const DefaultChannel = "cms:content-events"

const (
	resubscribeMin = time.Second
	resubscribeMax = 30 * time.Second
)

// Relay carries content events between API instances over Redis pub/sub.
// Every instance publishes its own mutations and forwards every received
// event, its own included, to the local hub.
type Relay struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

func NewRelay(client *redis.Client, channel string, log zerolog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{client: client, channel: channel, log: log}
}

// Publish implements ports.ContentPublisher.
func (r *Relay) Publish(ctx context.Context, event ports.ContentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode content event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run subscribes to the channel and hands every event to sink until ctx is
// cancelled. It returns an error only when the subscription cannot be set up.
func (r *Relay) Run(ctx context.Context, sink ports.ContentPublisher) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	r.log.Info().Str("channel", r.channel).Msg("realtime relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := decodeEvent(msg.Payload)
			if err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("discarding malformed content event")
				continue
			}
			if err := sink.Publish(ctx, event); err != nil {
				r.log.Error().Err(err).Str("content_id", event.ContentID).Msg("relay delivery failed")
			}
		}
	}
}

// RunForever keeps the relay subscribed until ctx is cancelled. A failed or
// dropped subscription is retried with exponential backoff.
func (r *Relay) RunForever(ctx context.Context, sink ports.ContentPublisher) {
	retryLoop(ctx, func(ctx context.Context) error { return r.Run(ctx, sink) }, r.log, resubscribeMin, resubscribeMax)
}

func retryLoop(ctx context.Context, run func(context.Context) error, log zerolog.Logger, minDelay, maxDelay time.Duration) {
	delay := minDelay
	for {
		err := run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Error().Err(err).Dur("retry_in", delay).Msg("realtime relay failed")
		} else {
			// The subscription was up before it closed; start over from the
			// shortest delay.
			delay = minDelay
			log.Warn().Dur("retry_in", delay).Msg("realtime relay subscription closed")
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err != nil {
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
}

func decodeEvent(payload string) (ports.ContentEvent, error) {
	var event ports.ContentEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, fmt.Errorf("decode content event: %w", err)
	}
	if event.ContentID == "" {
		return event, fmt.Errorf("decode content event: missing contentId")
	}
	switch event.Kind {
	case ports.ContentUpdated:
		if event.Content == nil {
			return event, fmt.Errorf("decode content event: updated event without content")
		}
	case ports.ContentDeleted:
	default:
		return event, fmt.Errorf("decode content event: unknown kind %q", event.Kind)
	}
	return event, nil
}
