package audit

import (
	"context"

	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
)

const (
	EventEntityChanged = "EntityChanged"

	TopicEntityChanged = "storefront.audit.changed"
)

// KafkaRecorder publishes every mutation entry to the audit topic.
// The producer is async, so recording never blocks the request path.
type KafkaRecorder struct {
	Producer *kafkax.Producer
	Service  string
}

func (r *KafkaRecorder) Record(_ context.Context, e Entry) {
	ev := kafkax.NewEnvelope(EventEntityChanged, r.Service, e.EntityID, e)
	r.Producer.PublishEnvelope(ev)
}
