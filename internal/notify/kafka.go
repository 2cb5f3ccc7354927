package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
)

// messageWriter — часть kafka.Writer, которой пользуется Kafka.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka публикует письма в топик JSON-сообщениями.
// Ключ сообщения — адрес получателя, письма одному адресату идут в одну партицию.
type Kafka struct {
	w     messageWriter
	topic string
}

// NewKafka создаёт продьюсер поверх kafka.Writer.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (k *Kafka) Notify(ctx context.Context, msg Message) error {
	const op = "notify.kafka.Notify"

	lg := log.From(ctx)

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ctx, span := otel.Tracer("notify.kafka").Start(ctx, "kafka.produce "+k.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", k.topic),
		),
	)
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]kafka.Header, 0, len(carrier)+1)
	headers = append(headers, kafka.Header{Key: "kind", Value: []byte(msg.Kind)})
	for key, v := range carrier {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	err = k.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(strings.ToLower(msg.To)),
		Value:   value,
		Headers: headers,
	})
	if err != nil {
		lg.Error("kafka_write_failed",
			slog.String("op", op),
			slog.String("topic", k.topic),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Debug("email_published",
		slog.String("kind", string(msg.Kind)),
		slog.String("topic", k.topic),
	)

	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }

var _ Notifier = (*Kafka)(nil)
