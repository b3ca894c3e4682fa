package events

import (
	"context"

	"github.com/bookline/service-booking/internal/platform/kafka"
)

// KafkaNotifier is the notification-dispatcher collaborator: it hands
// notification requests to the pipeline over Kafka, at most once per event.
// Delivery retries and dead-lettering are the pipeline's concern, not ours.
type KafkaNotifier struct {
	producer *kafka.Producer
}

// NewKafkaNotifier creates a KafkaNotifier over the given producer.
func NewKafkaNotifier(producer *kafka.Producer) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

// Publish sends one notification request keyed by event kind.
func (n *KafkaNotifier) Publish(ctx context.Context, eventKind string, payload any) error {
	return n.producer.Publish(ctx, TopicNotifications, Source, eventKind, eventKind, payload)
}
