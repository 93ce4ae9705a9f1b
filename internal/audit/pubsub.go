package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/amm-validator/internal/constants"
)

// PubSub publishes decision events on Redis channels and lets subscribers
// follow them.
type PubSub struct {
	client *redis.Client
	log    logrus.FieldLogger
}

func NewPubSub(client *redis.Client, log logrus.FieldLogger) *PubSub {
	return &PubSub{client: client, log: log}
}

// Channels returns the channels ev is published to.
func Channels(ev *DecisionEvent) []string {
	channels := []string{
		constants.PubSubChannelDecisions,
		fmt.Sprintf(constants.PubSubChannelActionTemplate, ev.Action),
	}
	if !ev.Accepted {
		channels = append(channels, constants.PubSubChannelRejections)
	}
	return channels
}

// Record publishes ev to every channel from Channels in one pipeline.
func (p *PubSub) Record(ctx context.Context, ev *DecisionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	for _, channel := range Channels(ev) {
		pipe.Publish(ctx, channel, data)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (p *PubSub) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *PubSub) Close() error {
	return p.client.Close()
}

// Subscribe calls handler for every event on channel until ctx is done.
func (p *PubSub) Subscribe(ctx context.Context, channel string, handler func(*DecisionEvent)) error {
	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	p.log.WithField("channel", channel).Info("subscribed")
	return p.consume(ctx, sub, handler)
}

// PSubscribe is Subscribe for a channel pattern such as "decisions:action:*".
func (p *PubSub) PSubscribe(ctx context.Context, pattern string, handler func(*DecisionEvent)) error {
	sub := p.client.PSubscribe(ctx, pattern)
	defer sub.Close()

	p.log.WithField("pattern", pattern).Info("subscribed")
	return p.consume(ctx, sub, handler)
}

func (p *PubSub) consume(ctx context.Context, sub *redis.PubSub, handler func(*DecisionEvent)) error {
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
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
			var ev DecisionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.log.WithError(err).Warn("dropping malformed decision event")
				continue
			}
			handler(&ev)
		}
	}
}
