package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fekuna/omnipos-sales-service/pkg/broker"
)

type KafkaPublisher struct {
	producer *broker.KafkaProducer
	source   string
}

func NewKafkaPublisher(producer *broker.KafkaProducer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", e.Type, err)
		}
		headers := map[string]string{
			"event_type": e.Type,
			"source":     p.source,
		}
		if err := p.producer.Publish(ctx, e.Key, value, headers); err != nil {
			return fmt.Errorf("publish %s: %w", e.Type, err)
		}
	}
	return nil
}
