// Package kafka publishes passport events to a Kafka topic with franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"passport/internal/events"
	"passport/internal/platform/config"
)

// Producer is a relay.Sink backed by a franz-go client.
type Producer struct {
	client *kgo.Client
	topic  string
}

// New connects to the configured brokers. Returns nil when no brokers are
// configured (Kafka disabled).
func New(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: cfg.Topic}, nil
}

// EnsureTopic creates the events topic if it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Publish produces every entry keyed by passport ID so events for one
// passport stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, entries []events.OutboxEntry) error {
	records := make([]*kgo.Record, 0, len(entries))
	for _, entry := range entries {
		payload, err := json.Marshal(entry.Event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", entry.ID, err)
		}
		records = append(records, &kgo.Record{
			Key:   []byte(entry.Event.PassportID.String()),
			Value: payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_id", Value: []byte(entry.ID.String())},
				{Key: "event_type", Value: []byte(entry.Event.Type)},
			},
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce events: %w", err)
	}
	return nil
}

// Health pings the cluster.
func (p *Producer) Health(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}
